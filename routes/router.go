package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sgamb/yatut/config"
	"github.com/sgamb/yatut/controllers"
	"github.com/sgamb/yatut/middleware"
	"github.com/sgamb/yatut/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace the default console logger with the file-based zap logger.
	gl, err := utils.NewRollingFileLogger(cfg.GinLogPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.LoadHTMLGlob(cfg.TemplateGlob)
	r.Static("/static", cfg.StaticDir)
	r.Static("/media", cfg.MediaRoot)

	web := controllers.NewWebController(db)
	account := controllers.NewAccountController(db)
	postController := controllers.NewPostController(db)
	groupController := controllers.NewGroupController(db)
	followController := controllers.NewFollowController(db)
	tokenController := controllers.NewTokenController(db)
	statsController := controllers.NewStatsController(db)
	docsController := controllers.NewDocsController()

	pageCache := utils.NewCacheStore()

	// Web surface. SessionUser only annotates the context; LoginRequired
	// redirects anonymous visitors to the login page with a next parameter.
	r.Use(middleware.SessionUser())

	r.GET("/", middleware.PageCache(pageCache, cfg.PageCacheTTL()), web.Index)
	r.GET("/group/:slug", web.GroupPosts)
	r.GET("/follow", middleware.LoginRequired(), web.FollowIndex)
	r.GET("/new", middleware.LoginRequired(), web.NewPostForm)
	r.POST("/new", middleware.LoginRequired(), web.CreatePost)

	auth := r.Group("/auth")
	auth.Use(middleware.RateLimitMiddleware())
	auth.GET("/signup", account.SignupForm)
	auth.POST("/signup", account.Signup)
	auth.GET("/login", account.LoginForm)
	auth.POST("/login", account.Login)
	auth.GET("/logout", account.Logout)

	about := r.Group("/about")
	about.GET("/author", web.AboutAuthor)
	about.GET("/tech", web.AboutTech)

	r.GET("/:username", web.Profile)
	r.GET("/:username/follow", middleware.LoginRequired(), web.FollowAuthor)
	r.GET("/:username/unfollow", middleware.LoginRequired(), web.UnfollowAuthor)
	r.GET("/:username/:post_id", web.PostView)
	r.GET("/:username/:post_id/edit", middleware.LoginRequired(), web.EditPostForm)
	r.POST("/:username/:post_id/edit", middleware.LoginRequired(), web.UpdatePost)
	r.POST("/:username/:post_id/comment", middleware.LoginRequired(), web.AddComment)

	// API documentation.
	r.GET("/swagger.json", docsController.Schema)
	r.GET("/swagger", docsController.SwaggerUI)
	r.GET("/redoc", docsController.Redoc)

	// REST API surface.
	api := r.Group("/api/v1")

	jwtGroup := api.Group("/jwt")
	jwtGroup.Use(middleware.RateLimitMiddleware())
	jwtGroup.POST("/create", tokenController.Create)
	jwtGroup.POST("/refresh", tokenController.Refresh)
	jwtGroup.POST("/verify", tokenController.Verify)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)
	api.GET("/posts/:id/comments", postController.ListComments)
	api.GET("/posts/:id/comments/:comment_id", postController.GetComment)
	api.GET("/groups", groupController.ListGroups)
	api.GET("/groups/:id", groupController.GetGroup)
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.PATCH("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.POST("/posts/:id/comments", postController.CreateComment)
	protected.PUT("/posts/:id/comments/:comment_id", postController.UpdateComment)
	protected.PATCH("/posts/:id/comments/:comment_id", postController.UpdateComment)
	protected.DELETE("/posts/:id/comments/:comment_id", postController.DeleteComment)
	protected.GET("/follow", followController.ListFollows)
	protected.POST("/follow", followController.CreateFollow)
	protected.DELETE("/follow/:username", followController.DeleteFollow)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.NoRoute(func(ctx *gin.Context) {
		path := ctx.Request.URL.Path
		if strings.HasPrefix(path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		web.NotFound(ctx)
	})

	return r
}
