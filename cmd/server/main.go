package main

import (
	"context"
	"time"

	monitoring "cloud.google.com/go/monitoring/apiv3/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"

	"modbox/backend/internal/analytics"
	"modbox/backend/internal/auditlog"
	"modbox/backend/internal/config"
	"modbox/backend/internal/database"
	"modbox/backend/internal/deletion"
	"modbox/backend/internal/geo"
	"modbox/backend/internal/handlers"
	"modbox/backend/internal/importer"
	"modbox/backend/internal/logger"
	"modbox/backend/internal/mail"
	"modbox/backend/internal/middleware"
	"modbox/backend/internal/store"
	"modbox/backend/internal/userinfo"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	clients, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("connecting to firebase", zap.Error(err))
	}

	docs := store.NewFirestoreStore(clients.Firestore)
	blobs := store.NewBucketBlobs(clients.Bucket, clients.BucketID)

	grants := userinfo.New(docs, cfg.SuperadminUIDs)
	audit := auditlog.New(docs)
	orch := deletion.NewOrchestrator(docs, blobs, audit, grants, log).
		WithRetryBudget(cfg.DeleteRetries, time.Duration(cfg.DeleteRetryDelay)*time.Millisecond)
	imp := importer.New(docs, geo.NewGoogleGeocoder(cfg.GeocodingAPIKey), log)

	var mailer mail.Provider = &mail.NoOpProvider{}
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTP(mail.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	} else {
		log.Warn("SMTP_HOST not set, mail delivery disabled")
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// Best-effort only: the cache degrades to direct reads.
			log.Warn("redis unavailable, analytics cache degraded", zap.Error(err))
		}
	}
	cache := analytics.NewRedisCache(redisClient, log)

	var analyticsService *analytics.Service
	if cfg.AnalyticsPropertyID != "" {
		ga, err := analyticsdata.NewService(ctx, option.WithCredentialsJSON(clients.CredentialsJSON))
		if err != nil {
			log.Warn("analytics data client unavailable", zap.Error(err))
		}
		metrics, err := monitoring.NewMetricClient(ctx, option.WithCredentialsJSON(clients.CredentialsJSON))
		if err != nil {
			log.Warn("monitoring client unavailable", zap.Error(err))
		}
		if ga != nil && metrics != nil {
			analyticsService = analytics.New(ga, metrics, cfg.AnalyticsPropertyID, cfg.ProjectID, cache, log)
		}
	}

	productHandler := &handlers.ProductHandler{FS: clients.Firestore, Grants: grants, Audit: audit, Orch: orch, Log: log}
	moduleHandler := &handlers.ModuleHandler{FS: clients.Firestore, Grants: grants, Audit: audit, Orch: orch, Log: log}
	categoryHandler := &handlers.CategoryHandler{FS: clients.Firestore, Log: log}
	objectHandler := &handlers.ObjectHandler{FS: clients.Firestore, Log: log}
	importHandler := &handlers.ImportHandler{Importer: imp, Audit: audit, Log: log}
	uploadHandler := &handlers.UploadHandler{FS: clients.Firestore, Blobs: blobs, Log: log}
	userHandler := &handlers.UserHandler{Auth: clients.Auth, Grants: grants, Mailer: mailer, Audit: audit, Log: log}
	logHandler := &handlers.LogHandler{Audit: audit, Grants: grants}
	analyticsHandler := &handlers.AnalyticsHandler{Service: analyticsService, Log: log}
	publicHandler := &handlers.PublicHandler{Docs: docs, Mailer: mailer, Log: log}

	router := gin.Default()
	router.GET("/health", handlers.HealthCheck)

	// Public render endpoints consumed by the iframe embed.
	public := router.Group("/public")
	{
		public.GET("/products/:slug", publicHandler.Product)
		public.GET("/products/:slug/modules/:moduleId", publicHandler.Module)
		public.POST("/forms/:productId/:moduleId", publicHandler.SubmitForm)
	}

	api := router.Group("/api/v1")
	{
		protected := api.Group("/").Use(middleware.AuthMiddleware(clients.Auth))
		{
			// PRODUCT ROUTES
			protected.POST("/products", productHandler.Create)
			protected.GET("/products", productHandler.List)
			protected.GET("/products/:productId", productHandler.Get)
			protected.DELETE("/products/:productId", productHandler.Delete)

			// MODULE ROUTES
			protected.POST("/products/:productId/modules", moduleHandler.Create)
			protected.GET("/products/:productId/modules", moduleHandler.List)
			protected.GET("/products/:productId/modules/:moduleId", moduleHandler.Get)
			protected.PUT("/products/:productId/modules/:moduleId", moduleHandler.Update)
			protected.DELETE("/products/:productId/modules/:moduleId", moduleHandler.Delete)

			// FILIALFINDER ROUTES
			protected.GET("/products/:productId/modules/:moduleId/categories", categoryHandler.List)
			protected.POST("/products/:productId/modules/:moduleId/categories", categoryHandler.Create)
			protected.PUT("/products/:productId/modules/:moduleId/categories/order", categoryHandler.Reorder)
			protected.PUT("/products/:productId/modules/:moduleId/categories/:categoryId", categoryHandler.Update)
			protected.DELETE("/products/:productId/modules/:moduleId/categories/:categoryId", categoryHandler.Delete)
			protected.GET("/products/:productId/modules/:moduleId/objects", objectHandler.List)
			protected.POST("/products/:productId/modules/:moduleId/objects", objectHandler.Create)
			protected.PUT("/products/:productId/modules/:moduleId/objects/:objectId", objectHandler.Update)
			protected.DELETE("/products/:productId/modules/:moduleId/objects/:objectId", objectHandler.Delete)

			// CSV IMPORT ROUTES
			protected.POST("/products/:productId/modules/:moduleId/import", importHandler.Diff)
			protected.POST("/products/:productId/modules/:moduleId/import/commit", importHandler.Commit)

			// UPLOAD ROUTES
			protected.POST("/uploads/images/:moduleId", uploadHandler.Image)
			protected.POST("/uploads/pdf/:productId/:moduleId", uploadHandler.PDF)

			// USER ROUTES
			protected.POST("/users", userHandler.Create)
			protected.GET("/users", userHandler.List)
			protected.PUT("/users/:uid", userHandler.Update)
			protected.DELETE("/users/:uid", userHandler.Delete)
			protected.POST("/users/:uid/reset", userHandler.Reset)

			// AUDIT LOG ROUTE
			protected.GET("/logs/:date", logHandler.Day)

			// ANALYTICS ROUTES
			protected.GET("/analytics/pageviews", analyticsHandler.Pageviews)
			protected.GET("/analytics/statistics", analyticsHandler.Statistics)
		}
	}

	log.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
