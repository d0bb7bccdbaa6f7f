package router

import (
	"log"
	"yatube/internal/config"
	"yatube/internal/handlers"
	"yatube/internal/middleware"
	"yatube/internal/services"
	"yatube/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the shared resources the site is built from.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Cache  utils.PageCache
	Media  services.MediaStore
}

// New wires services, handlers and middleware into a gin engine.
func New(d Deps) *gin.Engine {
	cfg := d.Config

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	follows := services.NewFollowService(d.DB)
	feed := services.NewFeedService(d.DB, follows, cfg.PostsPerPage)
	posts := services.NewPostService(d.DB, d.Media, d.Cache)
	groups := services.NewGroupService(d.DB, d.Cache)
	users := services.NewUserService(d.DB, d.Media, d.Cache)

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxImageBytes + 1<<20

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 14 * 24 * 3600, HttpOnly: true})
	r.Use(sessions.Sessions("yatube_session", store))

	r.HTMLRender = LoadTemplates(cfg.TemplatesDir, d.Media)

	r.Static("/static", cfg.StaticDir)
	if _, ok := d.Media.(*services.LocalMediaStore); ok {
		r.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	r.Use(middleware.LoadUser(users))

	RegisterRoutes(r, Handlers{
		Feed:   handlers.NewFeedHandler(feed, d.Cache),
		Post:   handlers.NewPostHandler(posts, groups, cfg.MaxImageBytes),
		Follow: handlers.NewFollowHandler(follows),
		Group:  handlers.NewGroupHandler(groups),
		Auth:   handlers.NewAuthHandler(users),
		About:  handlers.NewAboutHandler(),
		SEO:    handlers.NewSEOHandler(feed, groups, users, cfg.SiteURL),
	})
	return r
}

type Handlers struct {
	Feed   *handlers.FeedHandler
	Post   *handlers.PostHandler
	Follow *handlers.FollowHandler
	Group  *handlers.GroupHandler
	Auth   *handlers.AuthHandler
	About  *handlers.AboutHandler
	SEO    *handlers.SEOHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	// 公共路由 (Public Routes)
	r.GET("/", h.Feed.Index)                     // 首页
	r.GET("/group/:slug/", h.Feed.GroupPosts)    // 分组下的帖子
	r.GET("/groups/", h.Group.ListGroups)        // 所有分组
	r.GET("/profile/:username/", h.Feed.Profile) // 作者主页
	r.GET("/posts/:id/", h.Feed.PostDetail)      // 帖子详情

	r.GET("/auth/signup/", h.Auth.ShowSignup) // 注册页面
	r.POST("/auth/signup/", h.Auth.Signup)    // 提交注册
	r.GET("/auth/login/", h.Auth.ShowLogin)   // 登录页面
	r.POST("/auth/login/", h.Auth.Login)      // 提交登录
	r.GET("/auth/logout/", h.Auth.Logout)     // 退出登录

	r.GET("/about/author/", h.About.Author)
	r.GET("/about/tech/", h.About.Tech)

	r.GET("/robots.txt", h.SEO.RobotsTxt)
	r.GET("/sitemap.xml", h.SEO.SitemapXML)
	r.GET("/feed.xml", h.SEO.RSSFeed)

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/create/", h.Post.ShowCreate)             // 发布页面
		authorized.POST("/create/", h.Post.Create)                // 提交发布
		authorized.GET("/posts/:id/edit/", h.Post.ShowEdit)       // 编辑页面
		authorized.POST("/posts/:id/edit/", h.Post.Update)        // 提交编辑
		authorized.POST("/posts/:id/delete/", h.Post.Delete)      // 删除帖子
		authorized.POST("/posts/:id/comment/", h.Post.AddComment) // 发表评论

		authorized.GET("/follow/", h.Feed.FollowIndex)                    // 关注的作者
		authorized.GET("/profile/:username/follow/", h.Follow.Follow)     // 关注
		authorized.GET("/profile/:username/unfollow/", h.Follow.Unfollow) // 取消关注
	}

	r.NoRoute(handlers.NotFound)
}
