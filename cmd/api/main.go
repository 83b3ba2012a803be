package main

import (
	"log"
	"net/smtp"
	"os"

	_ "ppda-backend/api/swagger" // swagger docs
	"ppda-backend/internal/database"
	"ppda-backend/internal/handler"
	"ppda-backend/internal/middleware"
	"ppda-backend/internal/notification"
	"ppda-backend/internal/repository"
	"ppda-backend/internal/service"
	"ppda-backend/internal/storage"
	"ppda-backend/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Prevention Plan Compliance API
// @version         1.0
// @description     API for tracking agency compliance with prevention plan measures.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	dbUser := getenv("DB_USER", "postgres")
	dbPassword := getenv("DB_PASSWORD", "postgres")
	dbName := getenv("DB_NAME", "postgres")
	dbSslMode := getenv("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	store, err := storage.NewLocalStorage(getenv("UPLOAD_DIR", "uploads"))
	if err != nil {
		log.Fatalf("Upload directory setup failed: %v", err)
	}

	notifier := buildNotifier()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	agencyRepo := repository.NewAgencyRepository(db)
	municipalityRepo := repository.NewMunicipalityRepository(db)
	measureTypeRepo := repository.NewMeasureTypeRepository(db)
	measureRepo := repository.NewMeasureRepository(db)
	userRepo := repository.NewUserRepository(db)
	indicatorRepo := repository.NewIndicatorRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	agencyService := service.NewAgencyService(agencyRepo, auditRepo, txManager)
	municipalityService := service.NewMunicipalityService(municipalityRepo)
	measureTypeService := service.NewMeasureTypeService(measureTypeRepo)
	measureService := service.NewMeasureService(measureRepo, agencyRepo, measureTypeRepo, auditRepo, txManager)
	userService := service.NewUserService(userRepo, agencyRepo, auditRepo, txManager, notifier, wsHub)
	submissionService := service.NewSubmissionService(measureRepo, indicatorRepo, userRepo, auditRepo, txManager, store, wsHub)
	reviewService := service.NewReviewService(indicatorRepo, measureRepo, userRepo, auditRepo, txManager, notifier, wsHub)
	dashboardService := service.NewDashboardService(measureRepo, indicatorRepo, userRepo)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	agencyHandler := handler.NewAgencyHandler(agencyService)
	municipalityHandler := handler.NewMunicipalityHandler(municipalityService)
	measureTypeHandler := handler.NewMeasureTypeHandler(measureTypeService)
	measureHandler := handler.NewMeasureHandler(measureService, submissionService)
	userHandler := handler.NewUserHandler(userService)
	indicatorHandler := handler.NewIndicatorHandler(reviewService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
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

	// WebSocket endpoint (admin review feed)
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	agencyHandler.RegisterRoutes(router.Group(""))
	municipalityHandler.RegisterRoutes(router.Group(""))
	measureTypeHandler.RegisterRoutes(router.Group(""))
	measureHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	indicatorHandler.RegisterRoutes(router.Group(""))
	dashboardHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := getenv("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// buildNotifier wires the SMTP sender when a relay is configured, otherwise
// notifications are dropped silently.
func buildNotifier() notification.Sender {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		log.Println("SMTP_HOST not set; notifications disabled")
		return notification.NopSender{}
	}

	port := getenv("SMTP_PORT", "587")
	from := getenv("SMTP_FROM", "noreply@localhost")

	var auth smtp.Auth
	if user := os.Getenv("SMTP_USER"); user != "" {
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASSWORD"), host)
	}
	return notification.NewSMTPSender(host, port, from, auth)
}
