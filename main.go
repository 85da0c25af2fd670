package main

import (
	"net/http"
	"os"
	"strings"
	"time"

	"blackscholes-api/controllers"
	"blackscholes-api/database"
	"blackscholes-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment defaults")
	}

	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	}

	storage, err := database.NewLocalStorage(getEnv("DB_PATH", "data/calculations.db"))
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}
	defer storage.Close()

	// Audit records older than 30 days are not kept
	if err := storage.CleanupOldData(time.Now().AddDate(0, 0, -30)); err != nil {
		logger.WithError(err).Warn("Failed to clean up old calculation records")
	}

	activityLogger := services.NewActivityLogger(getEnv("ACTIVITY_LOG_DIR", "logs/activity"))
	engine := services.NewBlackScholesEngine()

	calculatorController := controllers.NewCalculatorController(engine, storage, activityLogger)
	activityController := controllers.NewActivityController(activityLogger, storage)

	router := gin.Default()

	origins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	router.Use(corsMiddleware(origins))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Black-Scholes API is running"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := router.Group("/api")
	calculatorController.RegisterRoutes(api)
	activityController.RegisterRoutes(api)

	port := getEnv("PORT", "8000")
	logger.WithField("port", port).Info("Starting Black-Scholes API")
	if err := router.Run(":" + port); err != nil {
		logger.WithError(err).Fatal("Server exited")
	}
}

// corsMiddleware allows cross-origin requests from the configured origins
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimSpace(origin)] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] || allowed["*"] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, Cache-Control, X-Requested-With")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
