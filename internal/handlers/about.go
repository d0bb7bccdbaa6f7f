package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AboutHandler struct{}

func NewAboutHandler() *AboutHandler {
	return &AboutHandler{}
}

func (h *AboutHandler) Author(c *gin.Context) {
	Render(c, http.StatusOK, "about/author.html", gin.H{
		"Title": "Об авторе проекта",
		"Text":  "Привет. Я автор проекта Yatube. Пишу backend сайтов на Go.",
	})
}

func (h *AboutHandler) Tech(c *gin.Context) {
	Render(c, http.StatusOK, "about/tech.html", gin.H{
		"Title": "Технологии",
		"Text":  "Сайт написан на Go: gin, gorm и PostgreSQL, шаблоны html/template.",
	})
}
