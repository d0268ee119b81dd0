package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yevgeniy8/books-reading-backend/internal/auth"
	"github.com/yevgeniy8/books-reading-backend/internal/book"
	"github.com/yevgeniy8/books-reading-backend/internal/config"
	"github.com/yevgeniy8/books-reading-backend/internal/plan"
	"github.com/yevgeniy8/books-reading-backend/internal/stats"
	"github.com/yevgeniy8/books-reading-backend/pkg/database"
	"github.com/yevgeniy8/books-reading-backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFormat == "json"); err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.L()
	log.Infow("starting_api_server", "db_path", cfg.DBPath)

	if err := database.InitDatabase(cfg.DBPath); err != nil {
		log.Errorw("failed_to_initialize_database", "error", err, "path", cfg.DBPath)
		os.Exit(1)
	}
	defer database.Close()

	authHandler := auth.NewHandler(cfg.JWTAccessSecret, cfg.JWTRefreshSecret)
	bookHandler := book.NewHandler()
	planHandler := plan.NewHandler()
	statsHandler := stats.NewHandler()

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.FrontendURL}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.AllowCredentials = true
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	accessAuth := auth.TokenMiddleware(cfg.JWTAccessSecret, auth.AccessTokenColumn)
	refreshAuth := auth.TokenMiddleware(cfg.JWTRefreshSecret, auth.RefreshTokenColumn)

	users := router.Group("/api/users")
	{
		users.POST("/register", authHandler.Register)
		users.POST("/login", authHandler.Login)
		users.POST("/logout", accessAuth, authHandler.Logout)
		users.POST("/refresh", refreshAuth, authHandler.Refresh)
		users.GET("/current", accessAuth, authHandler.Current)
	}

	books := router.Group("/api/books")
	books.Use(accessAuth)
	{
		books.GET("", bookHandler.GetAll)
		books.POST("", bookHandler.Add)
		books.DELETE("/:id", bookHandler.DeleteByID)
		books.PATCH("/:id/review", bookHandler.AddReview)
	}

	plans := router.Group("/api/plans")
	plans.Use(accessAuth)
	{
		plans.GET("", planHandler.Get)
		plans.POST("", planHandler.Add)
		plans.PATCH("", planHandler.ChangeStatus)
		plans.DELETE("", planHandler.Finish)
		plans.POST("/statistics", statsHandler.Add)
	}

	log.Infow("listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Errorw("failed_to_start_api_server", "error", err)
		os.Exit(1)
	}
}
