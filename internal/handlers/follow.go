package handlers

import (
	"errors"
	"net/http"
	"yatube/internal/models"
	"yatube/internal/services"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	follows *services.FollowService
}

func NewFollowHandler(follows *services.FollowService) *FollowHandler {
	return &FollowHandler{follows: follows}
}

// Follow 关注作者, 重复关注和关注自己都只是跳回主页
func (h *FollowHandler) Follow(c *gin.Context) {
	username := c.Param("username")
	_, err := h.follows.Follow(c.Request.Context(), viewerID(c), username)
	if err != nil && !errors.Is(err, models.ErrCannotFollowSelf) {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	username := c.Param("username")
	if err := h.follows.Unfollow(c.Request.Context(), viewerID(c), username); err != nil {
		handleError(c, err)
		return
	}
	c.Redirect(http.StatusFound, profileURL(username))
}
