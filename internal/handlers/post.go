package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
)

// PostHandler handles writes: posts and comments.
type PostHandler struct {
	posts         *services.PostService
	groups        *services.GroupService
	maxImageBytes int64
}

func NewPostHandler(posts *services.PostService, groups *services.GroupService, maxImageBytes int64) *PostHandler {
	return &PostHandler{posts: posts, groups: groups, maxImageBytes: maxImageBytes}
}

// postInput is the raw form, redisplayed when validation fails.
type postInput struct {
	Text  string `form:"text"`
	Group string `form:"group"`
}

type commentInput struct {
	Text string `form:"text"`
}

func (h *PostHandler) ShowCreate(c *gin.Context) {
	h.renderForm(c, http.StatusOK, nil, postInput{}, nil)
}

func (h *PostHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	input, form, err := h.bindForm(c)
	if err == nil {
		_, err = h.posts.Create(c.Request.Context(), user.ID, form)
	}

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		h.renderForm(c, http.StatusBadRequest, nil, input, verr.Fields)
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// ShowEdit 只有作者能编辑, 其他人跳回详情页
func (h *PostHandler) ShowEdit(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	post, err := h.posts.Editable(c.Request.Context(), viewerID(c), id)
	if errors.Is(err, models.ErrNotPostOwner) {
		c.Redirect(http.StatusFound, postURL(id))
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}

	input := postInput{Text: post.Text}
	if post.GroupID != nil {
		input.Group = strconv.FormatUint(uint64(*post.GroupID), 10)
	}
	h.renderForm(c, http.StatusOK, post, input, nil)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	input, form, err := h.bindForm(c)
	var post *models.Post
	if err == nil {
		post, err = h.posts.Update(c.Request.Context(), viewerID(c), id, form)
	}

	var verr *models.ValidationError
	switch {
	case errors.Is(err, models.ErrNotPostOwner):
		c.Redirect(http.StatusFound, postURL(id))
	case errors.As(err, &verr):
		if post == nil {
			// bindForm failed before the post was loaded
			if post, err = h.posts.Editable(c.Request.Context(), viewerID(c), id); err != nil {
				if errors.Is(err, models.ErrNotPostOwner) {
					c.Redirect(http.StatusFound, postURL(id))
					return
				}
				handleError(c, err)
				return
			}
		}
		h.renderForm(c, http.StatusBadRequest, post, input, verr.Fields)
	case err != nil:
		handleError(c, err)
	default:
		c.Redirect(http.StatusFound, postURL(id))
	}
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	user := middleware.CurrentUser(c)
	err := h.posts.Delete(c.Request.Context(), user.ID, id)
	if errors.Is(err, models.ErrNotPostOwner) {
		c.Redirect(http.StatusFound, postURL(id))
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, profileURL(user.Username))
}

// AddComment 无效评论直接忽略, 始终跳回帖子
func (h *PostHandler) AddComment(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	var input commentInput
	_ = c.ShouldBind(&input)

	_, err := h.posts.AddComment(c.Request.Context(), viewerID(c), id, input.Text)
	var verr *models.ValidationError
	if err != nil && !errors.As(err, &verr) {
		handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, postURL(id))
}

// bindForm reads text, group and the optional image upload.
func (h *PostHandler) bindForm(c *gin.Context) (postInput, services.PostForm, error) {
	var input postInput
	if err := c.ShouldBind(&input); err != nil {
		return input, services.PostForm{}, err
	}

	form := services.PostForm{Text: input.Text}
	if input.Group != "" {
		// 非法 id 交给 service 校验, 0 不会匹配任何分组
		gid, _ := utils.ParseID(input.Group)
		form.GroupID = &gid
	}

	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return input, form, nil
	}
	if err != nil {
		return input, form, err
	}

	file, err := fh.Open()
	if err != nil {
		return input, form, err
	}
	defer file.Close()

	upload, err := services.ReadUpload(file, fh.Filename, h.maxImageBytes)
	if errors.Is(err, services.ErrImageTooLarge) {
		verr := models.NewValidationError()
		verr.Add("image", fmt.Sprintf("Файл больше %d МБ.", h.maxImageBytes>>20))
		return input, form, verr
	}
	if err != nil {
		return input, form, err
	}
	form.Image = upload
	return input, form, nil
}

func (h *PostHandler) renderForm(c *gin.Context, code int, post *models.Post, input postInput, errs map[string]string) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	title := "Новый пост"
	if post != nil {
		title = "Редактировать пост"
	}
	Render(c, code, "posts/create_post.html", gin.H{
		"Title":  title,
		"IsEdit": post != nil,
		"Post":   post,
		"Form":   input,
		"Errors": errs,
		"Groups": groups,
	})
}

func postURL(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
