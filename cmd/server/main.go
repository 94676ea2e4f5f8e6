package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edm-backend/auth"
	"edm-backend/internal/audit"
	"edm-backend/internal/comment"
	"edm-backend/internal/config"
	"edm-backend/internal/db"
	"edm-backend/internal/document"
	"edm-backend/internal/email"
	"edm-backend/internal/folder"
	"edm-backend/internal/middleware"
	"edm-backend/internal/permission"
	"edm-backend/internal/storage"
	"edm-backend/internal/tag"
	"edm-backend/internal/user"
	"edm-backend/internal/workflow"
	"edm-backend/internal/worker"
	"edm-backend/pkg/logger"
	"edm-backend/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	config.LoadConfig()
	logger.Init(config.AppConfig.Environment)
	defer logger.Sync()

	// Connect to database
	if err := db.ConnectDb(); err != nil {
		logger.L.Fatal("database connection failed", zap.Error(err))
	}
	defer db.CloseDb()

	// Migrate database schema
	if err := db.Migrate(); err != nil {
		logger.L.Fatal("migration failed", zap.Error(err))
	}

	// Seed database with initial data
	if err := db.SeedData(); err != nil {
		logger.L.Fatal("seeding failed", zap.Error(err))
	}

	// Initialize Redis
	redis.InitRedis()

	// File storage backend
	files, err := storage.NewFromConfig(context.Background())
	if err != nil {
		logger.L.Fatal("storage init failed", zap.Error(err))
	}

	// Background workers for audit writes
	pool := worker.NewWorkerPool(4)
	defer pool.Shutdown()

	permission.RegisterValidators()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	folderRepo := folder.NewRepository(db.AppDb)
	documentRepo := document.NewRepository(db.AppDb)
	permissionRepo := permission.NewRepository(db.AppDb)
	tagRepo := tag.NewRepository(db.AppDb)
	commentRepo := comment.NewRepository(db.AppDb)
	workflowRepo := workflow.NewRepository(db.AppDb)
	auditRepo := audit.NewRepository(db.AppDb)

	// Initialize services
	recorder := audit.NewRecorder(auditRepo, pool)
	permissionService := permission.NewService(permissionRepo, userRepo, folderRepo, documentRepo, recorder)
	cache := redis.NewCache()
	folderService := folder.NewService(folderRepo, permissionService, documentRepo, cache, recorder)
	documentService := document.NewService(documentRepo, permissionService, tagRepo, files, recorder)
	tagService := tag.NewService(tagRepo)
	commentService := comment.NewService(commentRepo, permissionService)
	workflowService := workflow.NewService(workflowRepo, permissionService, recorder)
	userService := user.NewService(userRepo, email.NewFromConfig(), folderService, config.AppConfig.FrontendAddress)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	folderHandler := folder.NewHandler(folderService)
	documentHandler := document.NewHandler(documentService)
	permissionHandler := permission.NewHandler(permissionService)
	tagHandler := tag.NewHandler(tagService)
	commentHandler := comment.NewHandler(commentService)
	workflowHandler := workflow.NewHandler(workflowService)
	auditHandler := audit.NewHandler(auditRepo)

	// Initialize Gin router
	if config.AppConfig.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
	}
	if config.AppConfig.Environment == "development" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")

	// Auth routes
	api.POST("/auth/register", userHandler.Register)
	api.POST("/auth/login", userHandler.Login)
	api.DELETE("/auth/logout", auth.AuthMiddleWare(), userHandler.Logout)
	api.POST("/auth/request-password-reset", userHandler.RequestPasswordReset)
	api.POST("/auth/reset-password", userHandler.ResetPassword)

	authed := api.Group("", auth.AuthMiddleWare())

	// User routes
	authed.GET("/users/me", userHandler.GetProfile)
	authed.PUT("/users/me", userHandler.UpdateProfile)
	authed.PUT("/users/me/password", userHandler.ChangePassword)

	// Folder routes
	authed.GET("/folders", folderHandler.List)
	authed.POST("/folders", folderHandler.Create)
	authed.GET("/folders/:id", folderHandler.Get)
	authed.PUT("/folders/:id", folderHandler.Update)
	authed.DELETE("/folders/:id", folderHandler.Delete)

	// Document routes
	authed.GET("/documents", documentHandler.List)
	authed.POST("/documents", documentHandler.Create)
	authed.GET("/documents/:id", documentHandler.Get)
	authed.PUT("/documents/:id", documentHandler.Update)
	authed.DELETE("/documents/:id", documentHandler.Delete)
	authed.POST("/documents/:id/upload-version", documentHandler.UploadVersion)
	authed.GET("/documents/:id/versions", documentHandler.ListVersions)
	authed.GET("/documents/:id/download", documentHandler.Download)

	// Comment routes
	authed.GET("/documents/:id/comments", commentHandler.List)
	authed.POST("/documents/:id/comments", commentHandler.Create)
	authed.PUT("/comments/:id/resolve", commentHandler.Resolve)
	authed.DELETE("/comments/:id", commentHandler.Delete)

	// Workflow routes
	authed.GET("/documents/:id/workflows", workflowHandler.List)
	authed.POST("/documents/:id/workflows", workflowHandler.Create)
	authed.GET("/workflows/:id", workflowHandler.Get)
	authed.POST("/workflows/:id/complete-step", workflowHandler.CompleteStep)

	// Permission routes
	authed.GET("/permissions/users/:id", permissionHandler.ListForUser)
	authed.GET("/permissions/folders/:id", permissionHandler.ListForFolder)
	authed.GET("/permissions/documents/:id", permissionHandler.ListForDocument)
	authed.POST("/permissions", permissionHandler.Grant)
	authed.DELETE("/permissions/:id", permissionHandler.Revoke)

	// Tag routes: reads for everyone, writes for admins
	authed.GET("/tags", tagHandler.List)
	authed.GET("/tags/:id", tagHandler.Get)

	admin := authed.Group("", auth.RequireRoles(string(permission.RoleSystemAdmin), string(permission.RoleAdmin)))
	admin.POST("/tags", tagHandler.Create)
	admin.PUT("/tags/:id", tagHandler.Update)
	admin.DELETE("/tags/:id", tagHandler.Delete)
	admin.GET("/users", userHandler.ListUsers)
	admin.PUT("/users/:id/role", userHandler.SetRole)
	admin.DELETE("/users/:id", userHandler.Deactivate)
	admin.GET("/admin/audit-logs", auditHandler.List)
	admin.POST("/admin/backfill-personal-folders", userHandler.BackfillPersonalFolders)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		logger.L.Info("server listening", zap.String("port", serverPort))
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.L.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("server shutdown error", zap.Error(err))
	}

	logger.L.Info("server shutdown complete")
}
