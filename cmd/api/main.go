package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"botdeck/backend/internal/config"
	"botdeck/backend/internal/handler"
	"botdeck/backend/internal/middleware"
	"botdeck/backend/internal/repository"
	"botdeck/backend/internal/service"
	"botdeck/backend/pkg/binance"
	"botdeck/backend/pkg/jwt"
	"botdeck/backend/pkg/logger"
	"botdeck/backend/pkg/redis"
	"botdeck/backend/pkg/threecommas"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log := logger.GetLogger()

	log.Info("Starting BotDeck Backend...")
	log.Infof("Environment: %s", cfg.Server.Env)

	// Initialize Redis
	log.Info("Connecting to Redis...")
	redisClient, err := redis.New(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", err)
	}
	defer redisClient.Close()
	log.Info("✓ Redis connected")

	// Set Gin mode
	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Apply middleware
	router.Use(middleware.Recovery(log))                                           // Panic recovery
	router.Use(middleware.RequestID())                                             // Request ID
	router.Use(middleware.Logger(log))                                             // Request logging
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))                           // CORS
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimit.RequestsPerMinute)) // Rate limiting

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		// Test Redis connection
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "Redis connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"redis":  "connected",
			"env":    cfg.Server.Env,
		})
	})

	// Initialize JWT manager
	jwtManager := jwt.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpire,
		cfg.JWT.RefreshTokenExpire,
	)

	// Initialize platform and exchange clients
	platformClient := threecommas.NewClient(cfg.ThreeCommas.APIURL, cfg.ThreeCommas.APIKey, cfg.ThreeCommas.APISecret)
	exchangeClient := binance.NewClient(cfg.Binance.APIURL)

	// Initialize repositories
	userRepo := repository.NewUserRepository(redisClient)
	botRepo := repository.NewBotRepository(redisClient)

	// Initialize services
	notificationService := service.NewNotificationService(redisClient)
	authService := service.NewAuthService(userRepo, jwtManager)
	userService := service.NewUserService(userRepo)
	credService := service.NewCredentialService(userRepo, exchangeClient, platformClient, notificationService, cfg.Encryption.Key)
	botService := service.NewBotService(botRepo, platformClient, userRepo, notificationService)

	// Initialize WebSocket hub
	wsHub := service.NewWSHub(redisClient)
	go wsHub.Run()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go wsHub.StartPubSubListener(hubCtx)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	credHandler := handler.NewCredentialHandler(credService)
	botHandler := handler.NewBotHandler(botService)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "pong",
				"time":    time.Now().Unix(),
			})
		})

		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.AuthRateLimit(redisClient, cfg.RateLimit.AuthRequestsPerMinute), authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", middleware.AuthMiddleware(authService), authHandler.Logout)
			auth.GET("/me", middleware.AuthMiddleware(authService), authHandler.GetMe)
		}

		// User routes
		users := v1.Group("/users")
		users.Use(middleware.AuthMiddleware(authService))
		{
			users.GET("/profile", userHandler.GetProfile)
			users.PUT("/profile", userHandler.UpdateProfile)
			users.POST("/password", userHandler.ChangePassword)
		}

		// Exchange credential routes
		credentials := v1.Group("/credentials")
		credentials.Use(middleware.AuthMiddleware(authService))
		{
			credentials.POST("", credHandler.Connect)
			credentials.GET("", credHandler.Status)
			credentials.DELETE("", credHandler.Disconnect)
			credentials.GET("/wallet", credHandler.Wallet)
		}

		// Bot lifecycle routes
		bots := v1.Group("/bots")
		bots.Use(middleware.AuthMiddleware(authService))
		{
			bots.POST("", botHandler.CreateBot)
			bots.GET("", botHandler.ListBots)
			bots.GET("/:id", botHandler.GetBot)
			bots.PUT("/:id", botHandler.UpdateBot)
			bots.DELETE("/:id", botHandler.DeleteBot)
			bots.POST("/:id/pause", botHandler.PauseBot)
			bots.POST("/:id/start", botHandler.StartBot)
			bots.POST("/:id/panic", botHandler.PanicBot)
			bots.POST("/:id/duplicate", botHandler.DuplicateBot)
			bots.GET("/:id/deals", botHandler.ListDeals)
			bots.GET("/:id/performance", botHandler.GetPerformance)
			bots.GET("/:id/summary", botHandler.GetBotSummary)
		}

		// WebSocket route (token auth via query param)
		v1.GET("/ws", middleware.WebSocketAuth(authService), wsHub.ServeWS)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Infof("Server starting on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", err)
		}
	}()

	log.Info("✓ Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", err)
	}

	log.Info("Server exited")
}
