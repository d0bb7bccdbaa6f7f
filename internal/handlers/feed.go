package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
)

// FeedHandler serves the read-only pages: index, group, profile, post and
// the followed-authors feed.
type FeedHandler struct {
	feed  *services.FeedService
	cache utils.PageCache
}

func NewFeedHandler(feed *services.FeedService, cache utils.PageCache) *FeedHandler {
	return &FeedHandler{feed: feed, cache: cache}
}

type groupURI struct {
	Slug string `uri:"slug" binding:"required,slug"`
}

// Index 首页, 整页结果缓存在 PageCache 中, 写操作时失效
func (h *FeedHandler) Index(c *gin.Context) {
	ctx := c.Request.Context()
	page := pageNumber(c)
	if page < 1 {
		page = 1
	}

	var p services.Page[models.Post]
	data, hit := h.cache.Get(ctx, services.IndexView, page)
	if hit {
		if err := json.Unmarshal(data, &p); err != nil {
			log.Printf("[FeedHandler] Broken cache entry for page %d: %v", page, err)
			hit = false
		}
	}
	if !hit {
		var err error
		p, err = h.feed.GlobalFeed(ctx, page)
		if err != nil {
			handleError(c, err)
			return
		}
		if data, err := json.Marshal(p); err == nil {
			h.cache.Set(ctx, services.IndexView, page, data)
		}
	}

	Render(c, http.StatusOK, "posts/index.html", gin.H{
		"Title": "Последние обновления на сайте",
		"Page":  p,
	})
}

func (h *FeedHandler) GroupPosts(c *gin.Context) {
	var uri groupURI
	if err := c.ShouldBindUri(&uri); err != nil {
		NotFound(c)
		return
	}

	group, p, err := h.feed.GroupFeed(c.Request.Context(), uri.Slug, pageNumber(c))
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "posts/group_list.html", gin.H{
		"Title": "Записи сообщества " + group.String(),
		"Group": group,
		"Page":  p,
	})
}

// Profile 作者主页, 包含关注状态和关注数
func (h *FeedHandler) Profile(c *gin.Context) {
	viewer := viewerID(c)
	feed, err := h.feed.AuthorFeed(c.Request.Context(), c.Param("username"), pageNumber(c), viewer)
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "posts/profile.html", gin.H{
		"Title":          "Профайл пользователя " + feed.Author.FullName(),
		"Author":         feed.Author,
		"Page":           feed.Page,
		"PostCount":      feed.PostCount,
		"Following":      feed.Following,
		"FollowerCount":  feed.FollowerCount,
		"FollowingCount": feed.FollowingCount,
		"IsSelf":         viewer == feed.Author.ID,
	})
}

func (h *FeedHandler) PostDetail(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	detail, err := h.feed.PostDetail(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "posts/post_detail.html", gin.H{
		"Title":     "Пост " + detail.Post.String(),
		"Post":      detail.Post,
		"Comments":  detail.Comments,
		"PostCount": detail.AuthorPostCount,
		"IsAuthor":  viewerID(c) == detail.Post.UserID,
	})
}

// FollowIndex lists posts of every author the current user follows.
func (h *FeedHandler) FollowIndex(c *gin.Context) {
	p, err := h.feed.FollowedFeed(c.Request.Context(), viewerID(c), pageNumber(c))
	if err != nil {
		handleError(c, err)
		return
	}

	Render(c, http.StatusOK, "posts/follow.html", gin.H{
		"Title": "Избранные авторы",
		"Page":  p,
	})
}
