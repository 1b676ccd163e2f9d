package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/cppla/yatube/config"
	"github.com/cppla/yatube/controllers"
	"github.com/cppla/yatube/middleware"
	"github.com/cppla/yatube/services"
	"github.com/cppla/yatube/storage"
	"github.com/cppla/yatube/utils"
	"github.com/cppla/yatube/views"
)

// Deps are the long-lived resources the router wires into controllers.
type Deps struct {
	DB     *gorm.DB
	Config config.AppConfig
	Cache  utils.Cache
	Images storage.ImageStore
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.MaxMultipartMemory = int64(cfg.MediaMaxMB+1) << 20

	tmpl, err := views.Load(deps.Images.URL)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// Request lines go to their own rolling file; panics render the 500 page
	gl := utils.NewRollingFileLogger(cfg.GinPath, cfg)
	r.Use(ginzap.Ginzap(gl, time.RFC3339, true))
	r.Use(ginzap.CustomRecoveryWithZap(gl, true, func(ctx *gin.Context, _ interface{}) {
		controllers.RenderError(ctx, http.StatusInternalServerError)
		ctx.Abort()
	}))

	blacklist := utils.NewTokenBlacklist(deps.Cache)
	r.Use(middleware.Identify(deps.DB, cfg.JWTSecret, blacklist))
	// Record PV after each request
	r.Use(middleware.PageViewRecorder(deps.DB))

	graph := services.NewFollowGraph(deps.DB)
	feed := services.NewFeed(deps.DB, graph, cfg.PageSize)
	posts := services.NewPosts(deps.DB, deps.Images)
	comments := services.NewComments(deps.DB)
	groups := services.NewGroups(deps.DB)
	users := services.NewUsers(deps.DB)

	var captcha *utils.Captcha
	if cfg.SignupCaptchaEnabled {
		captcha = utils.NewCaptcha(deps.Cache)
	}
	postController := controllers.NewPostController(feed, graph, posts, comments, groups, int64(cfg.MediaMaxMB)<<20)
	authController := controllers.NewAuthController(users, cfg, blacklist, utils.NewStateStore(deps.Cache, 10*time.Minute), captcha)
	apiController := controllers.NewAPIController(feed, posts, deps.Images)
	statsController := controllers.NewStatsController(deps.DB)

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	htmlLimit := limiter.Middleware(func(ctx *gin.Context) {
		controllers.RenderError(ctx, http.StatusTooManyRequests)
	})
	apiLimit := limiter.Middleware(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusTooManyRequests, utils.CodeRateLimited, "rate limit exceeded")
	})

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if _, ok := deps.Images.(*storage.LocalStore); ok && strings.HasPrefix(cfg.MediaURL, "/") {
		r.Static(strings.TrimRight(cfg.MediaURL, "/"), cfg.MediaRoot)
	}

	// JSON API
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	api := r.Group("/api/v1", cors.New(corsCfg))
	api.GET("/posts/", apiController.ListPosts)
	api.GET("/posts/:id/", apiController.GetPost)
	api.POST("/auth/token/", apiLimit, authController.IssueToken)
	api.GET("/stats/", statsController.GetStats)

	// Authentication pages
	auth := r.Group("/auth")
	auth.GET("/login/", authController.LoginPage)
	auth.POST("/login/", htmlLimit, authController.Login)
	auth.GET("/signup/", authController.SignupPage)
	auth.POST("/signup/", htmlLimit, authController.Signup)
	auth.POST("/logout/", authController.Logout)
	auth.GET("/oauth/github/login/", authController.GitHubLogin)
	auth.GET("/oauth/github/callback/", authController.GitHubCallback)

	r.GET("/about/author/", controllers.AboutAuthor)
	r.GET("/about/tech/", controllers.AboutTech)

	// Feeds
	r.GET("/", middleware.CachePage(deps.Cache, time.Duration(cfg.IndexCacheSeconds)*time.Second), postController.Index)
	r.GET("/group/:slug/", postController.Group)

	protected := r.Group("", middleware.LoginRequired())
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/new/", postController.NewPost)
	protected.GET("/follow/", postController.FollowIndex)

	// Authors and their posts
	r.GET("/:username/", postController.Profile)
	r.GET("/:username/:post_id/", postController.PostView)
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/:username/follow/", postController.Follow)
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/:username/unfollow/", postController.Unfollow)
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/:username/:post_id/edit/", postController.EditPost)
	protected.POST("/:username/:post_id/del/", postController.DeletePost)
	protected.POST("/:username/:post_id/comment/", postController.AddComment)
	protected.Match([]string{http.MethodGet, http.MethodPost}, "/:username/:post_id/comment/:comment_id/edit/", postController.EditComment)
	protected.POST("/:username/:post_id/comment/:comment_id/del/", postController.DeleteComment)

	r.NoMethod(func(ctx *gin.Context) {
		controllers.RenderError(ctx, http.StatusMethodNotAllowed)
	})
	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, utils.CodeNotFound, "api route not found")
			return
		}
		controllers.RenderError(ctx, http.StatusNotFound)
	})

	return r, nil
}
