package handlers

import (
	"net/http"
	"yatube/internal/services"

	"github.com/gin-gonic/gin"
)

type GroupHandler struct {
	groups *services.GroupService
}

func NewGroupHandler(groups *services.GroupService) *GroupHandler {
	return &GroupHandler{groups: groups}
}

// ListGroups 展示所有分组
func (h *GroupHandler) ListGroups(c *gin.Context) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "groups/list.html", gin.H{
		"Title":  "Сообщества",
		"Groups": groups,
	})
}
