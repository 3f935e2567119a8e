package router

import (
	"database/sql"

	"inkpress/internal/auth"
	"inkpress/internal/config"
	"inkpress/internal/handlers"
	"inkpress/internal/middleware"
	"inkpress/internal/obs"
	"inkpress/internal/services"
	"inkpress/internal/store"
	"inkpress/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖的组件
type Deps struct {
	DB     *gorm.DB
	Mailer services.Mailer
	Images services.ImageStore
	Config config.Config
}

// New 创建引擎并注册中间件和全部路由
func New(deps Deps) (*gin.Engine, error) {
	sqlDB, err := deps.DB.DB()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	metrics := obs.NewMetrics(sqlDB)
	r.Use(metrics.Instrument())

	if err := RegisterRoutes(r, deps, metrics, sqlDB); err != nil {
		return nil, err
	}
	return r, nil
}

func RegisterRoutes(r *gin.Engine, deps Deps, metrics *obs.Metrics, sqlDB *sql.DB) error {
	cache, err := utils.NewCache(64)
	if err != nil {
		return err
	}

	// 存储与服务
	users := store.NewUsers(deps.DB)
	posts := store.NewPosts(deps.DB)
	categories := store.NewCategories(deps.DB, cache)
	tags := store.NewTags(deps.DB, cache)
	tokens := auth.NewTokenService(deps.DB)
	registry := auth.NewRegistry(deps.DB)
	resets := services.NewPasswordResetService(deps.DB, users, tokens, deps.Mailer, deps.Config.AppURL, deps.Config.ResetTokenTTL)

	// 处理器
	authHandler := handlers.NewAuthHandler(users, tokens, resets)
	userHandler := handlers.NewUserHandler(users, registry)
	postHandler := handlers.NewPostHandler(posts, deps.Images)
	categoryHandler := handlers.NewCategoryHandler(categories)
	tagHandler := handlers.NewTagHandler(tags)
	adminHandler := handlers.NewAdminHandler(users, posts, categories, tags)
	imageHandler := handlers.NewImageHandler(deps.Config.StorageDir)
	feedHandler := handlers.NewFeedHandler(posts, deps.Config.AppURL, deps.Config.AppName)

	// 运维路由
	r.GET("/healthz", obs.HealthHandler)
	r.GET("/readyz", obs.ReadyHandler(sqlDB))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/storage/*filepath", imageHandler.Serve) // 封面图
	r.GET("/feed.xml", feedHandler.RSS)

	api := r.Group("/api")
	api.Use(middleware.LoadPrincipal(tokens, registry))

	authed := auth.RequireAuth()
	admin := middleware.Gate(auth.RequireRole(auth.RoleAdmin))

	// 公共路由，限流
	public := api.Group("/")
	public.Use(middleware.NewRateLimiter(deps.Config.AuthRateLimitPerMin).Middleware())
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.POST("/forgot-password", authHandler.SendResetLink)
		public.POST("/reset-password", authHandler.ResetPassword)
	}

	api.POST("/logout", middleware.Gate(authed), authHandler.Logout)
	api.GET("/user", middleware.Gate(authed), authHandler.Me)

	// 文章
	api.GET("/posts", middleware.Gate(authed), postHandler.List)
	api.GET("/posts/:id", middleware.Gate(authed), postHandler.Show)
	api.POST("/posts", middleware.Gate(auth.RequirePermission(auth.PermManagePosts)), postHandler.Create)
	api.PUT("/posts/:id", middleware.Gate(auth.RequirePermission(auth.PermManagePosts)), postHandler.Update)
	api.DELETE("/posts/:id", middleware.Gate(auth.RequirePermission(auth.PermDeletePosts)), postHandler.Delete)
	api.POST("/posts/:id/publish", middleware.Gate(auth.RequirePermission(auth.PermPublishPosts)), postHandler.Publish)

	// 分类与标签
	api.GET("/categories", middleware.Gate(authed), categoryHandler.List)
	api.GET("/categories/:id", middleware.Gate(authed), categoryHandler.Show)
	api.POST("/categories", admin, categoryHandler.Create)
	api.PUT("/categories/:id", admin, categoryHandler.Update)
	api.DELETE("/categories/:id", admin, categoryHandler.Delete)

	api.GET("/tags", middleware.Gate(authed), tagHandler.List)
	api.GET("/tags/:id", middleware.Gate(authed), tagHandler.Show)
	api.POST("/tags", admin, tagHandler.Create)
	api.PUT("/tags/:id", admin, tagHandler.Update)
	api.DELETE("/tags/:id", admin, tagHandler.Delete)

	api.GET("/admin-dashboard", admin, adminHandler.Dashboard)

	// 用户管理，仅管理员
	usersGroup := api.Group("/users")
	usersGroup.Use(admin)
	{
		usersGroup.GET("", userHandler.List)
		usersGroup.POST("", userHandler.Create)
		usersGroup.GET("/:id", userHandler.Show)
		usersGroup.PUT("/:id", userHandler.Update)
		usersGroup.DELETE("/:id", userHandler.Delete)
		usersGroup.POST("/:id/roles", userHandler.AssignRole)
		usersGroup.POST("/:id/permissions", userHandler.AssignPermission)
	}

	return nil
}
