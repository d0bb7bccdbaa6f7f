package handlers

import (
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/feeds"
)

const (
	sitemapPostLimit = 500
	rssPostLimit     = 20
)

type SEOHandler struct {
	feed    *services.FeedService
	groups  *services.GroupService
	users   *services.UserService
	siteURL string
}

func NewSEOHandler(feed *services.FeedService, groups *services.GroupService, users *services.UserService, siteURL string) *SEOHandler {
	return &SEOHandler{feed: feed, groups: groups, users: users, siteURL: siteURL}
}

func (h *SEOHandler) RobotsTxt(c *gin.Context) {
	content := fmt.Sprintf(`User-agent: *
Allow: /

# 登录、发帖和关注页面不需要收录
Disallow: /auth/
Disallow: /create/
Disallow: /follow/
Disallow: /*/edit/
Disallow: /*/follow/
Disallow: /*/unfollow/

Sitemap: %s/sitemap.xml
`, h.siteURL)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, content)
}

// SitemapXML 动态生成 sitemap.xml
func (h *SEOHandler) SitemapXML(c *gin.Context) {
	ctx := c.Request.Context()
	now := time.Now().Format("2006-01-02")

	groups, err := h.groups.List(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	authors, err := h.users.Authors(ctx)
	if err != nil {
		handleError(c, err)
		return
	}
	posts, err := h.feed.Recent(ctx, sitemapPostLimit)
	if err != nil {
		handleError(c, err)
		return
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
`)
	writeURL := func(loc, lastmod, changefreq string, priority float64) {
		fmt.Fprintf(&b, `  <url>
    <loc>%s%s</loc>
    <lastmod>%s</lastmod>
    <changefreq>%s</changefreq>
    <priority>%.1f</priority>
  </url>
`, h.siteURL, html.EscapeString(loc), lastmod, changefreq, priority)
	}

	writeURL("/", now, "hourly", 1.0)
	writeURL("/groups/", now, "weekly", 0.8)
	for _, g := range groups {
		writeURL("/group/"+g.Slug+"/", now, "daily", 0.7)
	}
	for _, u := range authors {
		writeURL(profileURL(u.Username), now, "daily", 0.6)
	}
	for _, p := range posts {
		// 新帖子更新更频繁
		priority, changefreq := 0.6, "weekly"
		if time.Since(p.CreatedAt) < 7*24*time.Hour {
			priority, changefreq = 0.8, "daily"
		}
		writeURL(postURL(p.ID), p.UpdatedAt.Format("2006-01-02"), changefreq, priority)
	}
	b.WriteString(`</urlset>`)

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// RSSFeed 生成 RSS 2.0 feed
func (h *SEOHandler) RSSFeed(c *gin.Context) {
	posts, err := h.feed.Recent(c.Request.Context(), rssPostLimit)
	if err != nil {
		handleError(c, err)
		return
	}

	feed := &feeds.Feed{
		Title:       "Yatube",
		Link:        &feeds.Link{Href: h.siteURL},
		Description: "Последние обновления на сайте",
		Created:     time.Now(),
	}
	categories := make([]string, 0, len(posts))
	for _, post := range posts {
		link := h.siteURL + postURL(post.ID)

		// 只取前三个段落
		content := utils.FirstBlocks(string(utils.RenderMarkdown(post.Text)), 3)
		content += fmt.Sprintf(`<p><a href="%s">Читать полностью →</a></p>`, link)

		feed.Items = append(feed.Items, &feeds.Item{
			Title:       post.String(),
			Link:        &feeds.Link{Href: link},
			Author:      &feeds.Author{Name: post.User.Username},
			Description: content,
			Id:          link,
			Created:     post.CreatedAt,
		})
		category := ""
		if post.Group != nil {
			category = post.Group.Title
		}
		categories = append(categories, category)
	}

	// feeds.Item 没有分类字段, 在 RSS 结构上补上
	rss := (&feeds.Rss{Feed: feed}).RssFeed()
	rss.Language = "ru-RU"
	for i, item := range rss.Items {
		item.Category = categories[i]
	}

	body, err := feeds.ToXML(rss)
	if err != nil {
		handleError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(body))
}
