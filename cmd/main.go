package main

import (
	"time"

	"github.com/mdyrsy/kalbar-cm/internal/handler"
	"github.com/mdyrsy/kalbar-cm/internal/identity"
	"github.com/mdyrsy/kalbar-cm/internal/middleware"
	"github.com/mdyrsy/kalbar-cm/pkg/config"
	"github.com/mdyrsy/kalbar-cm/pkg/database"
	"github.com/mdyrsy/kalbar-cm/pkg/jwtutil"
	"github.com/mdyrsy/kalbar-cm/pkg/logger"
	"github.com/mdyrsy/kalbar-cm/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting contract service...", cfg.LogConfig()...)

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed",
		zap.String("db_host", cfg.Database.Host),
		zap.String("db_name", cfg.Database.Name))

	// Initialize the identity provider (local or http)
	if err := identity.Initialize(&cfg.Identity, &cfg.JWT); err != nil {
		log.Fatal("Failed to initialize identity provider", zap.Error(err))
	}
	log.Info("Identity provider initialized", zap.String("mode", cfg.Identity.Mode))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)

	// Request logging and metrics middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start).Seconds()
			status := c.Response().Status

			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Float64("duration_s", duration),
				zap.String("ip", c.RealIP()),
			)

			prometheus.RecordHTTPRequest(c.Request().Method, c.Path(), status, duration)

			return err
		}
	})

	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	// Authentication endpoints
	e.POST("/auth/login", handler.Login)
	e.POST("/auth/register", handler.Register)
	e.POST("/auth/refresh", handler.RefreshSession)

	// API routes that require authentication
	api := e.Group("")
	api.Use(middleware.AuthMiddleware)

	// User endpoints. Stats route is registered before :id so it is not
	// captured as a user ID.
	users := api.Group("/users")
	users.GET("/stats", handler.UserStats)
	users.POST("", handler.CreateUser, middleware.RequireSuperAdmin)
	users.GET("", handler.ListUsers)
	users.GET("/:id", handler.GetUser)
	users.PATCH("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser, middleware.RequireSuperAdmin)

	// Contract endpoints
	contracts := api.Group("/contracts")
	contracts.GET("/stats", handler.ContractStats)
	contracts.POST("", handler.CreateContract)
	contracts.GET("", handler.ListContracts)
	contracts.GET("/:id", handler.GetContract)
	contracts.PATCH("/:id", handler.UpdateContract)
	contracts.DELETE("/:id", handler.DeleteContract)

	// Service endpoints
	services := api.Group("/services")
	services.POST("", handler.CreateService)
	services.GET("", handler.ListServices)
	services.GET("/:id", handler.GetService)
	services.PATCH("/:id", handler.UpdateService)
	services.DELETE("/:id", handler.DeleteService)

	// Service type endpoints
	serviceTypes := api.Group("/service-types")
	serviceTypes.POST("", handler.CreateServiceType)
	serviceTypes.GET("", handler.ListServiceTypes)
	serviceTypes.GET("/:id", handler.GetServiceType)
	serviceTypes.PATCH("/:id", handler.UpdateServiceType)
	serviceTypes.DELETE("/:id", handler.DeleteServiceType)

	// Contract type endpoints
	contractTypes := api.Group("/contract-types")
	contractTypes.POST("", handler.CreateContractType)
	contractTypes.GET("", handler.ListContractTypes)
	contractTypes.GET("/:id", handler.GetContractType)
	contractTypes.PATCH("/:id", handler.UpdateContractType)
	contractTypes.DELETE("/:id", handler.DeleteContractType)

	// Contract progress endpoints
	contractProgresses := api.Group("/contract-progresses")
	contractProgresses.POST("", handler.CreateContractProgress)
	contractProgresses.GET("", handler.ListContractProgresses)
	contractProgresses.GET("/:id", handler.GetContractProgress)
	contractProgresses.PATCH("/:id", handler.UpdateContractProgress)
	contractProgresses.DELETE("/:id", handler.DeleteContractProgress)

	// Contract link endpoints
	contractLinks := api.Group("/contract-links")
	contractLinks.POST("", handler.CreateContractLink)
	contractLinks.GET("", handler.ListContractLinks)
	contractLinks.GET("/:id", handler.GetContractLink)
	contractLinks.PATCH("/:id", handler.UpdateContractLink)
	contractLinks.DELETE("/:id", handler.DeleteContractLink)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
