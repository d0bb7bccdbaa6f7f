package handlers

import (
	"errors"
	"log"
	"net/http"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
)

// Render helper to inject common variables like 'current user'
func Render(c *gin.Context, code int, name string, obj gin.H) {
	if obj == nil {
		obj = gin.H{}
	}

	if user := middleware.CurrentUser(c); user != nil {
		obj["CurrentUser"] = user
	}
	obj["CurrentPath"] = c.Request.URL.Path

	c.HTML(code, name, obj)
}

// RenderError renders the shared error page.
func RenderError(c *gin.Context, code int, message string) {
	Render(c, code, "error.html", gin.H{
		"Title": http.StatusText(code),
		"Code":  code,
		"Error": message,
	})
}

// NotFound is the fallback for unknown paths.
func NotFound(c *gin.Context) {
	RenderError(c, http.StatusNotFound, "Страница не найдена")
}

// handleError maps service errors onto responses. Validation and ownership
// errors are handled by the caller, anything left here is a 404 or a 500.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrPostNotFound),
		errors.Is(err, models.ErrGroupNotFound),
		errors.Is(err, models.ErrUserNotFound):
		NotFound(c)
	default:
		log.Printf("[Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		RenderError(c, http.StatusInternalServerError, "Внутренняя ошибка сервера")
	}
}

// pageNumber reads ?page=. Anything unparsable becomes 0, which the
// paginator clamps to the first page.
func pageNumber(c *gin.Context) int {
	return utils.StringToInt(c.DefaultQuery("page", "1"))
}

// viewerID is the logged-in user's ID, 0 for anonymous visitors.
func viewerID(c *gin.Context) uint {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

// postIDParam parses :id, writing a 404 when it is not a number.
func postIDParam(c *gin.Context) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		NotFound(c)
	}
	return id, ok
}
