package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibin/research-pipeline/config"
	httphandler "github.com/vibin/research-pipeline/internal/adapters/primary/http"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/llm"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/mail"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/repository"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/websearch"
	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
	"github.com/vibin/research-pipeline/internal/core/services"
	"github.com/vibin/research-pipeline/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logLevel := slog.LevelInfo
	if *debugMode {
		logLevel = slog.LevelDebug
	}
	log := logger.New(logLevel, os.Stdout)
	log.Info("Starting research pipeline server")

	// Load configuration
	var cfg *config.Config
	var err error

	if *configPath != "" {
		log.Info("Loading configuration", "path", *configPath)
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Error("Failed to load configuration", "error", err)
			os.Exit(1)
		}
	} else {
		log.Info("Using default configuration")
		cfg = config.DefaultConfig()
		cfg.ApplyEnvOverrides()
	}

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize adapters
	log.Info("Initializing adapters")

	var tavily, serp ports.SearchProviderPort
	if cfg.Search.TavilyAPIKey != "" {
		tavily = websearch.NewTavilyAdapter(&cfg.Search, log)
		log.Info("Tavily search adapter configured")
	}
	if cfg.Search.SerpAPIKey != "" {
		serp = websearch.NewSerpAPIAdapter(&cfg.Search, log)
		log.Info("SerpAPI search adapter configured")
	}

	llmAdapter, err := llm.NewLangChainAdapter(&cfg.LLM, log)
	if err != nil {
		log.Error("Failed to initialize LLM adapter", "error", err)
		os.Exit(1)
	}

	var mailPort ports.MailPort
	if cfg.Gmail.Enabled {
		mailPort = mail.NewGmailAdapter(&cfg.Gmail, log)
		log.Info("Gmail adapter configured")
	}

	var historyRepo ports.HistoryRepositoryPort
	if cfg.History.Enabled {
		repo, err := repository.NewHistoryRepository(cfg.History.Path, log)
		if err != nil {
			log.Error("Failed to open history database", "path", cfg.History.Path, "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		historyRepo = repo
	}

	// Create services
	searchService := services.NewSearchService(tavily, serp, domain.Strategy(cfg.Search.Strategy), log)
	emailService := services.NewEmailService(llmAdapter, mailPort, log)
	researchService := services.NewResearchService(searchService, llmAdapter, emailService, historyRepo, log)

	// Create HTTP handler and server
	handler := httphandler.NewHandler(researchService, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 180 * time.Second, // Research runs include LLM calls
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}
