package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	apexlog "github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"esg-compliance-service/config"
	"esg-compliance-service/database"
	"esg-compliance-service/handlers"
	"esg-compliance-service/llm"
	"esg-compliance-service/metrics"
	"esg-compliance-service/openai"
	"esg-compliance-service/rabbitmq"
	"esg-compliance-service/report"
	"esg-compliance-service/stubllm"
	"esg-compliance-service/validation"
)

func main() {
	// Load configuration
	cfg := config.Load()

	if level, err := apexlog.ParseLevel(cfg.LogLevel); err == nil {
		apexlog.SetLevel(level)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	metrics.Register()

	// Select narrative provider
	var generator llm.NarrativeGenerator
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			log.Fatal("OPENAI_API_KEY environment variable is required when LLM_PROVIDER is openai")
		}
		generator = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	case "stub":
		generator = stubllm.NewClient()
	default:
		log.Fatalf("Unknown LLM_PROVIDER %q, expected openai or stub", cfg.LLMProvider)
	}

	// Initialize RabbitMQ publisher. Event publishing is best-effort, so a
	// broker outage does not block startup.
	var publisher *rabbitmq.Publisher
	if cfg.AMQPURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("Failed to connect to RabbitMQ: %v. Continuing without event publishing.", err)
			publisher = nil
		} else {
			defer publisher.Close()
		}
	}

	validator := validation.NewValidator(db)
	orchestrator := report.NewOrchestrator(db, generator, publisher, cfg.OpenAIModel, cfg.NarrativeTimeout)
	h := handlers.NewHandlers(db, validator, orchestrator, generator, publisher, cfg.NarrativeTimeout)

	// Setup HTTP server
	router := gin.Default()

	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/projects/:projectId/datapoints", h.CreateDataPoints)
		api.POST("/projects/:projectId/datapoints/generate", h.GenerateDataPoints)
		api.GET("/projects/:projectId/datapoints", h.ListDataPoints)
		api.POST("/datapoints/:id/validate", h.ValidateDataPoint)
		api.GET("/projects/:projectId/assessments/:framework", h.GetAssessment)
		api.POST("/projects/:projectId/assessments/:framework", h.UpsertAssessment)
		api.POST("/projects/:projectId/reports", h.GenerateReport)
		api.GET("/reports/:id", h.GetReport)
		api.GET("/reports/:id/xbrl", h.GetReportXBRL)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
