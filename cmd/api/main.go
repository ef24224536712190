package main

import (
	_ "backend/api/swagger" // swagger docs
	"backend/internal/database"
	"backend/internal/handler"
	"backend/internal/mailer"
	"backend/internal/middleware"
	"backend/internal/repository"
	"backend/internal/service"
	"backend/internal/storage"
	"backend/internal/websocket"
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Partner Incentive Console API
// @version         1.0
// @description     Admin console API for the B2B partner incentive program: deal approvals, goals and points, reward redemptions, prizes and support.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Object storage and mail delivery degrade gracefully when unconfigured.
	store, err := storage.NewS3StoreFromEnv(context.Background())
	if err != nil {
		log.Println("WARNING: object storage disabled:", err)
		store = storage.Disabled(err)
	}
	mail := mailer.NewFromEnv()

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	regionRepo := repository.NewRegionConfigRepository(db)
	pointsRepo := repository.NewPointsRepository(db)
	dealRepo := repository.NewDealRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	prizeRepo := repository.NewPrizeRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	txManager := repository.NewTransactionManager(db)

	authService := service.NewAuthService(userRepo, mail, wsHub)
	userService := service.NewUserService(userRepo, regionRepo, auditRepo, txManager)
	dealService := service.NewDealService(dealRepo, userRepo, regionRepo, pointsRepo, auditRepo, txManager, wsHub)
	regionService := service.NewRegionService(regionRepo, rewardRepo, pointsRepo)
	rewardService := service.NewRewardService(rewardRepo, userRepo, pointsRepo, auditRepo, txManager, store, wsHub)
	prizeService := service.NewPrizeService(prizeRepo, regionRepo, auditRepo, txManager)
	ticketService := service.NewTicketService(ticketRepo, wsHub)
	masterDataService := service.NewMasterDataService(db)
	reportService := service.NewReportService(db)
	importService := service.NewCSVImportService(store, dealRepo, userRepo, auditRepo)
	auditService := service.NewAuditService(auditRepo)

	if err := regionService.EnsurePointsConfig(context.Background()); err != nil {
		log.Println("WARNING: failed to seed points configuration:", err)
	}

	// Magic link requests are throttled per IP on top of the auth service checks.
	magicLinkLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService, magicLinkLimiter)
	userHandler := handler.NewUserHandler(userService)
	dealHandler := handler.NewDealHandler(dealService)
	regionHandler := handler.NewRegionHandler(regionService)
	rewardHandler := handler.NewRewardHandler(rewardService)
	prizeHandler := handler.NewPrizeHandler(prizeService)
	ticketHandler := handler.NewTicketHandler(ticketService)
	masterDataHandler := handler.NewMasterDataHandler(masterDataService)
	reportHandler := handler.NewReportHandler(reportService)
	importHandler := handler.NewCSVImportHandler(importService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
	if appURL := os.Getenv("APP_URL"); appURL != "" {
		corsConfig.AllowOrigins = append(corsConfig.AllowOrigins, appURL)
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	// API Routing
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	dealHandler.RegisterRoutes(router.Group(""))
	regionHandler.RegisterRoutes(router.Group(""))
	rewardHandler.RegisterRoutes(router.Group(""))
	prizeHandler.RegisterRoutes(router.Group(""))
	ticketHandler.RegisterRoutes(router.Group(""))
	masterDataHandler.RegisterRoutes(router.Group(""))
	reportHandler.RegisterRoutes(router.Group(""))
	importHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
