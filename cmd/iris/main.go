package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"iris/internal/config"
	"iris/internal/dedup"
	"iris/internal/domain"
	"iris/internal/pipeline"
	"iris/internal/server"
	"iris/internal/summarize"
	"iris/internal/telex"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "err", err)
	}

	root := &cobra.Command{
		Use:     "iris",
		Short:   "Iris: detects tasks in chat messages and DMs summaries to assignees",
		Version: version,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.iris/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(statusCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent: webhook server plus pipeline worker",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Warn("config not found, using defaults", "path", cfgPath, "err", err)
		cfg = config.Defaults()
	}

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	store, err := dedup.NewSQLiteStore(
		cfg.Dedup.DBPath,
		time.Duration(cfg.Dedup.RetentionDays)*24*time.Hour,
		logger.With("component", "dedup"),
	)
	if err != nil {
		return fmt.Errorf("open dedup store: %w", err)
	}
	defer store.Close()

	var primary domain.Strategy
	if cfg.Summarizer.APIKey != "" {
		primary = summarize.NewOpenAI(summarize.OpenAIConfig{
			APIKey:    cfg.Summarizer.APIKey,
			APIBase:   cfg.Summarizer.APIBase,
			Model:     cfg.Summarizer.Model,
			MaxTokens: cfg.Summarizer.MaxTokens,
			Timeout:   time.Duration(cfg.Summarizer.TimeoutSeconds) * time.Second,
			Logger:    logger.With("component", "summarizer"),
		})
		logger.Info("model-backed summarizer enabled", "model", cfg.Summarizer.Model)
	} else {
		logger.Info("no summarizer API key, heuristic strategy only")
	}

	messenger := telex.NewClient(telex.Config{
		BaseURL: cfg.Telex.BaseURL,
		APIKey:  cfg.Telex.APIKey,
		Timeout: time.Duration(cfg.Telex.TimeoutSeconds) * time.Second,
		Logger:  logger.With("component", "telex"),
	})

	pipe := pipeline.New(pipeline.Config{
		Store:     store,
		Primary:   primary,
		Fallback:  summarize.NewHeuristic(),
		Messenger: messenger,
		Logger:    logger.With("component", "pipeline"),
		QueueSize: cfg.Dedup.QueueSize,
	})

	identity, err := server.LoadIdentityFile(cfg.Agent.IdentityFile, server.Identity{
		ID:          cfg.Agent.ID,
		Name:        cfg.Agent.Name,
		Description: cfg.Agent.Description,
		PublicURL:   cfg.Agent.PublicURL,
	}, logger)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}

	srv := server.New(server.Config{
		Host:     cfg.Server.Host,
		Port:     cfg.Server.Port,
		Secret:   cfg.Server.WebhookSecret,
		Identity: identity,
		Pipeline: pipe,
		Store:    store,
		Logger:   logger.With("component", "server"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pipe.Run(ctx)

	logger.Info("iris starting", "version", version, "agent", identity.Name, "port", cfg.Server.Port)
	return srv.Start(ctx)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured identity and probe the chat platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveConfigPath())
			if err != nil {
				return err
			}

			fmt.Printf("Agent:      %s (%s)\n", cfg.Agent.Name, cfg.Agent.ID)
			fmt.Printf("Public URL: %s\n", cfg.Agent.PublicURL)
			fmt.Printf("Platform:   %s\n", cfg.Telex.BaseURL)
			if cfg.Summarizer.APIKey != "" {
				fmt.Printf("Summarizer: %s (model-backed)\n", cfg.Summarizer.Model)
			} else {
				fmt.Println("Summarizer: heuristic only")
			}

			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(cfg.Telex.BaseURL)
			if err != nil {
				fmt.Printf("Platform reachability: FAILED (%v)\n", err)
				return nil
			}
			resp.Body.Close()
			fmt.Printf("Platform reachability: ok (%d)\n", resp.StatusCode)
			return nil
		},
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
