package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/supabase-community/gotrue-go"
	storage_go "github.com/supabase-community/storage-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/PrasadPotale/StudentsAid/internal/config"
	"github.com/PrasadPotale/StudentsAid/internal/handlers"
	"github.com/PrasadPotale/StudentsAid/internal/ledger"
	"github.com/PrasadPotale/StudentsAid/internal/middleware"
	"github.com/PrasadPotale/StudentsAid/internal/storage"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.Info("Starting student aid platform server...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("cannot load config: %v", err)
	}

	// Connect to the database (Supabase PostgreSQL)
	dbConn, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		logrus.Fatalf("cannot connect to database: %v", err)
	}
	defer dbConn.Close()
	logrus.Info("Connected to Supabase (PostgreSQL)")

	// Redis backs the signed-URL and listing caches
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("cannot connect to Redis: %v", err)
	}

	// Supabase clients: GoTrue for identity, storage for document blobs
	authClient := gotrue.New(cfg.SupabaseProjectRef, cfg.SupabaseServiceKey)
	storageClient := storage_go.NewClient(
		"https://"+cfg.SupabaseProjectRef+".supabase.co/storage/v1",
		cfg.SupabaseServiceKey, nil)

	docs := storage.NewDocuments(storageClient, rdb, cfg.StorageBucket)
	ldg := ledger.New(ledger.NewSQLStore(dbConn))

	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	authHandler := handlers.NewAuthHandler(authClient)
	profileHandler := handlers.NewProfileHandler(dbConn)
	documentHandler := handlers.NewDocumentHandler(dbConn, docs)
	requestHandler := handlers.NewRequestHandler(ldg, rdb)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Browsing open requests is public
		api.GET("/requests", requestHandler.ListOpen)

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.GoTrueJWTSecret))
		{
			protected.POST("/auth/logout", authHandler.Logout)

			protected.GET("/me", profileHandler.GetMyProfile)
			protected.POST("/profiles", profileHandler.Register)

			protected.GET("/me/documents", documentHandler.MyDocuments)
			protected.POST("/documents", documentHandler.Upload)
			protected.GET("/documents/:id/preview", documentHandler.Preview)

			protected.POST("/requests", requestHandler.Create)
			protected.GET("/me/requests", requestHandler.MyRequests)
			protected.POST("/requests/:id/donate", requestHandler.Donate)
			protected.GET("/me/donations", requestHandler.MyDonations)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(cfg.GoTrueJWTSecret), middleware.AdminOnly(dbConn))
		{
			admin.GET("/documents", documentHandler.ListAll)
			admin.PATCH("/documents/:id", documentHandler.Verify)
		}
	}

	logrus.Infof("Server starting on :%s", cfg.AppPort)
	if err := r.Run(":" + cfg.AppPort); err != nil {
		logrus.Fatalf("could not start server: %v", err)
	}
}
