// Package api is the view controller: gin handlers that parse input, call
// the repositories and render whole pages, plus a small JSON API.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdaily-web/internal/auth"
	"newsdaily-web/internal/comments"
	"newsdaily-web/internal/feeds"
	"newsdaily-web/internal/logging"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/render"
	"newsdaily-web/internal/users"
)

// Services holds everything the handlers need.
type Services struct {
	Posts    *posts.Repository
	Users    *users.Repository
	Comments *comments.Repository
	Auth     *auth.Service
	Feeds    *feeds.Importer
	Renderer *render.Renderer
	Logger   *zap.Logger

	SiteName     string
	CORSOrigins  []string
	CookieSecure bool
}

type handler struct {
	Services
}

// NewRouter builds the gin engine with the middleware stack and every
// route.
func NewRouter(svc Services) *gin.Engine {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(svc.Logger.Named("http")))
	router.Use(securityMiddleware())

	router.StaticFS("/static", http.FS(render.Static()))

	SetupRoutes(router, svc)
	return router
}

// SetupRoutes registers the site, admin and API routes on router.
func SetupRoutes(router *gin.Engine, svc Services) {
	if svc.Logger == nil {
		svc.Logger = zap.NewNop()
	}
	h := &handler{Services: svc}

	router.GET("/", h.home)
	router.GET("/article/:id", h.article)
	router.POST("/article/:id/like", h.toggleLike)
	router.POST("/article/:id/bookmark", h.toggleBookmark)
	router.POST("/article/:id/comments", h.addComment)
	router.POST("/comments/:id/like", h.likeComment)
	router.GET("/profile", h.profile)
	router.POST("/profile", h.saveProfile)
	router.POST("/logout", h.logout)
	router.POST("/preferences/theme", h.toggleTheme)
	router.POST("/preferences/font-size", h.changeFontSize)

	router.GET("/admin/login", h.adminLoginPage)
	router.POST("/admin/login", h.adminLogin)
	router.POST("/admin/logout", h.adminLogout)

	admin := router.Group("/admin")
	admin.Use(h.adminRequired())
	{
		admin.GET("", h.adminDashboard)
		admin.GET("/posts", h.adminPosts)
		admin.GET("/posts/new", h.adminNewPost)
		admin.POST("/posts", h.adminCreatePost)
		admin.GET("/posts/:id/edit", h.adminEditPost)
		admin.POST("/posts/:id", h.adminUpdatePost)
		admin.POST("/posts/:id/delete", h.adminDeletePost)
		admin.POST("/import", h.adminImport)
		admin.POST("/settings", h.adminSaveSettings)
	}

	origins := svc.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	api := router.Group("/api")
	api.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	{
		api.GET("/posts", h.apiPosts)
		api.GET("/posts/:id", h.apiPost)
		api.GET("/posts/:id/comments", h.apiComments)
		api.GET("/stats", h.apiStats)
		api.GET("/me", h.apiMe)
		api.GET("/me/stats", h.apiMyStats)
	}

	router.NoRoute(h.notFound)
}
