package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "penacms-backend/docs"

	"penacms-backend/auth"
	"penacms-backend/server/handlers"
	"penacms-backend/server/middleware"
	"penacms-backend/shared/config"
	"penacms-backend/shared/database"
	"penacms-backend/uploads"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close(db)

	if err := database.Seed(db, cfg); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}

	issuer, err := auth.NewTokenIssuer(
		cfg.JWTAccessSecret,
		cfg.JWTRefreshSecret,
		time.Duration(cfg.JWTAccessExpireMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshExpireDays)*24*time.Hour,
	)
	if err != nil {
		log.Fatalf("Failed to configure token issuer: %v", err)
	}

	revocationStore := newRevocationStore(cfg, db)
	authService := auth.NewService(db, issuer, revocationStore)

	authHandler := handlers.NewAuthHandler(authService)
	profileHandler := handlers.NewProfileHandler(db)
	roleHandler := handlers.NewRoleHandler(db)
	articleHandler := handlers.NewArticleHandler(db)
	taxonomyHandler := handlers.NewTaxonomyHandler(db)

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Device", "X-Device-ID", "X-Lat", "X-Long"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public auth endpoints
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/refresh", authHandler.Refresh)
	router.POST("/api/auth/logout", authHandler.Logout)

	// Public content endpoints
	router.GET("/api/articles", articleHandler.ListArticles)
	router.GET("/api/articles/:id", articleHandler.GetArticle)
	router.GET("/api/categories", taxonomyHandler.GetCategories)
	router.GET("/api/tags", taxonomyHandler.GetTags)
	router.GET("/api/languages", taxonomyHandler.GetLanguages)

	// Authenticated endpoints
	authed := router.Group("/api", middleware.RequireAuth(authService))
	{
		authed.GET("/auth/sessions", authHandler.ListSessions)
		authed.DELETE("/auth/sessions/:id", authHandler.RevokeSession)
		authed.POST("/auth/sessions/revoke-all", authHandler.RevokeAllSessions)
		authed.POST("/auth/revoke-all", authHandler.RevokeAllTokens)

		authed.GET("/profile", profileHandler.GetProfile)
		authed.PUT("/profile", profileHandler.UpdateProfile)

		authed.POST("/articles", articleHandler.CreateArticle)
		authed.PUT("/articles/:id", articleHandler.UpdateArticle)
		authed.DELETE("/articles/:id", articleHandler.DeleteArticle)

		authed.GET("/roles", roleHandler.GetRoles)
		authed.GET("/roles/:id", roleHandler.GetRole)
	}

	// Admin tier and above
	admin := router.Group("/api", middleware.RequireAuth(authService), middleware.RequireTier(auth.RoleAdmin))
	{
		admin.GET("/admin/active-users", authHandler.GetAllActiveUsers)
		admin.GET("/admin/active-sessions", authHandler.GetAllActiveSessions)

		admin.PATCH("/articles/:id/status", articleHandler.UpdateArticleStatus)

		admin.POST("/categories", taxonomyHandler.CreateCategory)
		admin.DELETE("/categories/:id", taxonomyHandler.DeleteCategory)
		admin.POST("/tags", taxonomyHandler.CreateTag)
		admin.DELETE("/tags/:id", taxonomyHandler.DeleteTag)
		admin.POST("/languages", taxonomyHandler.CreateLanguage)
		admin.DELETE("/languages/:id", taxonomyHandler.DeleteLanguage)
	}

	// SuperAdmin tier and above
	superAdmin := router.Group("/api", middleware.RequireAuth(authService), middleware.RequireTier(auth.RoleSuperAdmin))
	{
		superAdmin.POST("/roles", roleHandler.CreateRole)
		superAdmin.PUT("/roles/:id", roleHandler.UpdateRole)
		superAdmin.DELETE("/roles/:id", roleHandler.DeleteRole)
	}

	// Uploads are optional: without object storage the rest of the API still
	// serves.
	if uploadService, err := uploads.NewService(cfg); err != nil {
		log.Printf("Warning: MinIO unavailable, upload endpoints disabled: %v", err)
	} else {
		uploadHandler := handlers.NewUploadHandler(uploadService)
		authed.POST("/uploads", uploadHandler.Upload)
		admin.DELETE("/uploads/:object", uploadHandler.Delete)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "penacms",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Printf("🚀 PenaCMS API starting on port %s...", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// newRevocationStore prefers Redis for the revoked access token registry and
// falls back to the database table when Redis is unreachable.
func newRevocationStore(cfg *config.Config, db *gorm.DB) auth.RevocationStore {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis unavailable, using database revocation registry: %v", err)
		return auth.NewDBRevocationStore(db)
	}

	log.Println("✅ Redis connection established successfully")
	return auth.NewRedisRevocationStore(client)
}
