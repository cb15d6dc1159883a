package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vibin/research-pipeline/config"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/llm"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/mail"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/repository"
	"github.com/vibin/research-pipeline/internal/adapters/secondary/websearch"
	"github.com/vibin/research-pipeline/internal/core/domain"
	"github.com/vibin/research-pipeline/internal/core/ports"
	"github.com/vibin/research-pipeline/internal/core/services"
	"github.com/vibin/research-pipeline/internal/logger"
)

// App holds the CLI application state
type App struct {
	cfg     *config.Config
	service *services.ResearchService
	cleanup func()

	configPath string
	verbose    bool

	maxResults int
	strategy   string
	noSummary  bool
	render     bool
	jsonOutput bool

	recipient   string
	context     string
	subjectHint string
	tone        string

	historyLimit int
}

func main() {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "research",
		Short: "AI-powered research with multi-provider search and email drafts",
		Long: `Research CLI runs intelligent web search with automatic provider
fallback (Tavily first, SerpAPI second), synthesizes findings with an LLM
and can turn the result into a Gmail draft.

Examples:
  research search "latest Go releases"
  research run "AI safety research 2025" --max-results 5 --render
  research email "quarterly market trends" --to colleague@company.com
  research history --limit 10`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.cleanup != nil {
				app.cleanup()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(app.newSearchCmd())
	rootCmd.AddCommand(app.newRunCmd())
	rootCmd.AddCommand(app.newEmailCmd())
	rootCmd.AddCommand(app.newHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init loads configuration and wires the service dependencies. Log output
// goes to stderr so command output stays pipeable.
func (a *App) init() error {
	logLevel := slog.LevelWarn
	if a.verbose {
		logLevel = slog.LevelDebug
	}
	log := logger.New(logLevel, os.Stderr)

	var cfg *config.Config
	var err error
	if a.configPath != "" {
		cfg, err = config.LoadConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
		cfg.ApplyEnvOverrides()
	}
	if a.strategy != "" {
		cfg.Search.Strategy = a.strategy
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	var tavily, serp ports.SearchProviderPort
	if cfg.Search.TavilyAPIKey != "" {
		tavily = websearch.NewTavilyAdapter(&cfg.Search, log)
	}
	if cfg.Search.SerpAPIKey != "" {
		serp = websearch.NewSerpAPIAdapter(&cfg.Search, log)
	}

	llmAdapter, err := llm.NewLangChainAdapter(&cfg.LLM, log)
	if err != nil {
		return fmt.Errorf("failed to initialize LLM adapter: %w", err)
	}

	var mailPort ports.MailPort
	if cfg.Gmail.Enabled {
		mailPort = mail.NewGmailAdapter(&cfg.Gmail, log)
	}

	var historyRepo ports.HistoryRepositoryPort
	if cfg.History.Enabled {
		repo, err := repository.NewHistoryRepository(cfg.History.Path, log)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		historyRepo = repo
		a.cleanup = func() { repo.Close() }
	}

	searchService := services.NewSearchService(tavily, serp, domain.Strategy(cfg.Search.Strategy), log)
	emailService := services.NewEmailService(llmAdapter, mailPort, log)
	a.service = services.NewResearchService(searchService, llmAdapter, emailService, historyRepo, log)
	return nil
}
