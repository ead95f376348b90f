package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"eternal/internal/cache"
	"eternal/internal/config"
	"eternal/internal/repository"
	"eternal/internal/service"
	"eternal/internal/transport/rest"
	"eternal/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Load AI config and log model settings
	aiConfig := config.DefaultAIConfig()
	log.Printf("AI Config:")
	log.Printf("  Chat:     %s", aiConfig.Models.Chat)
	log.Printf("  Report:   %s", aiConfig.Models.Report)
	log.Printf("  Vision:   %s", aiConfig.Models.Vision)
	log.Printf("  Timeout:  %dms", aiConfig.TimeoutMS)
	if aiConfig.IsEnabled() {
		log.Println("  API Key:  configured ✓")
	} else {
		log.Println("  API Key:  NOT SET (scripted interviewer, fallback reports)")
	}

	prompts, err := config.LoadPrompts(cfg.PromptsFile)
	if err != nil {
		log.Fatal("Failed to load prompts:", err)
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	var reportRepo repository.ReportRepo
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		sqliteRepo, err := repository.NewSQLiteReportRepo(cfg.SQLitePath)
		if err != nil {
			log.Fatal("Failed to open SQLite report store:", err)
		}
		defer sqliteRepo.Close()
		reportRepo = sqliteRepo
		log.Printf("Reports stored in SQLite at %s", cfg.SQLitePath)
	default:
		reportRepo = repository.NewReportRepo(db)
		log.Println("Reports stored in MongoDB")
	}
	conversationRepo := repository.NewConversationRepo(db)
	imageRepo := repository.NewImageRepo(db)

	// Initialize caches
	conversationCache := cache.NewConversationCache(rdb, cfg.SessionTTL)
	reportCache := cache.NewReportCache(rdb, cfg.ReportCacheTTL)

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWTSecret)
	aiClient := service.NewAIClient(aiConfig, prompts)
	reportStore := service.NewCachedReportStore(reportRepo, reportCache)
	synthesizer := service.NewReportSynthesizer(aiClient)
	engine := service.NewConversationEngine(aiClient, synthesizer, reportStore, prompts)
	gate := service.NewImageValidationGate(aiClient, imageRepo, prompts.ImageInstruction)
	sessionSvc := service.NewSessionService(engine, gate, conversationCache, conversationRepo, reportStore)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	sessionSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		AuthService:    authSvc,
		SessionService: sessionSvc,
		Images:         imageRepo,
		WSHub:          wsHub,
		CORS:           cfg.CORS,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/guest")
		log.Println("  POST/GET /v1/conversation")
		log.Println("  POST /v1/conversation/messages")
		log.Println("  POST /v1/conversation/image")
		log.Println("  POST /v1/conversation/report")
		log.Println("  POST /v1/conversation/retake")
		log.Println("  GET  /v1/reports/me")
		log.Println("  GET  /v1/images/{id}")
		log.Println("  WS   /v1/ws")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
