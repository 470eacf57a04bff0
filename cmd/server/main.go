package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/config"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/handler"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/logger"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/provider"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/repository"
	"github.com/ukmadlz/infobip-talk-quiz-whatsapp-bot/internal/service"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found or error loading, relying on environment variables")
	}

	log := logger.New()

	// --- Configuration ---
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load DB config")
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.WithError(err).Fatal("failed to load app config")
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(dbPool); err != nil {
		log.WithError(err).Fatal("failed to auto-migrate database")
	}

	// --- Initialize Providers ---
	httpClient := &http.Client{Timeout: 15 * time.Second}
	messenger := provider.NewInfobipClient(appCfg.InfobipBaseURL, appCfg.InfobipAPIKey, appCfg.WhatsAppSender, httpClient, log)

	var realtime provider.Publisher
	policy := service.Policy{
		WelcomeText:        "Thanks for joining 😄 let's have some fun",
		OnboardingMediaURL: "https://encrypted-tbn0.gstatic.com/images?q=tbn:ANd9GcT2Y2aFqUbRHfMnxOthwedrzyeXGXjLhUIy-A&usqp=CAU",
		ClosingText:        "Wait for the questions to come in",
	}
	if appCfg.AblyAPIKey != "" {
		realtime = provider.NewAblyClient(appCfg.AblyAPIKey, httpClient)
		policy.RealtimeChannel = appCfg.AblyChannel
	}

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	questionRepo := repository.NewQuestionRepository(dbPool)
	answerRepo := repository.NewAnswerRepository(dbPool)
	couponRepo := repository.NewCouponRepository(dbPool)

	// --- Initialize Services ---
	inboundService := service.NewInboundService(userRepo, answerRepo, messenger, realtime, policy, log)
	broadcastService := service.NewBroadcastService(userRepo, questionRepo, couponRepo, messenger, log)

	// --- Initialize Handlers ---
	messageHandler := handler.NewMessageHandler(inboundService, broadcastService)

	// --- Setup Gin Router ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default()

	// --- Register Routes ---
	messageHandler.RegisterMessageRoutes(router)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + appCfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.WithField("port", appCfg.ServerPort).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen failed")
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server exiting")
}
