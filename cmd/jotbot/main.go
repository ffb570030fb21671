package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jotbot/internal/bus"
	"jotbot/internal/channel"
	"jotbot/internal/config"
	"jotbot/internal/ingest"
	"jotbot/internal/journal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	// A .env next to the binary can hold TELEGRAM_BOT_TOKEN for the
	// config's ${VAR} expansion.
	_ = godotenv.Load()

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "jotbot",
		Short: "jotbot: Telegram to markdown daily journal",
		Long:  "jotbot receives Telegram messages and appends them to one markdown file per day. Running it with no subcommand starts the bot (first run is interactive setup).",
		RunE:  runRun,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.jotbot/config.json)")

	root.AddCommand(runCmd())
	root.AddCommand(setupCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(configCmd())
	root.AddCommand(backupCmd())
	root.AddCommand(restoreCmd())
	root.AddCommand(daemonCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the bot and journal incoming messages",
		RunE:  runRun,
	}
}

// resolveConfigPath returns the config path from --config flag or default.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfgPath := resolveConfigPath()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if _, statErr := os.Stat(config.ExpandPath(cfgPath)); os.IsNotExist(statErr) {
			// First run: gather token and journal directory interactively.
			cfg, err = runSetupFlow(cfgPath)
			if err != nil {
				return err
			}
		} else {
			return fmt.Errorf("load config: %w", err)
		}
	}

	if err := setupLogger(cfg); err != nil {
		return err
	}

	// Graceful shutdown on signals.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	messageBus := bus.New(100, logger)

	writer := journal.NewWriter(journal.WriterConfig{
		Dir:         cfg.Journal.Dir,
		FrontMatter: cfg.Journal.FrontMatter,
		Logger:      logger,
	})
	store := journal.NewAttachmentStore(journal.AttachmentStoreConfig{
		Dir:      cfg.Journal.Dir,
		Subdir:   cfg.Journal.AttachmentsDir,
		MaxBytes: cfg.Journal.MaxAttachmentBytes,
		Logger:   logger,
	})

	ingestor := ingest.New(ingest.Config{
		Writer: writer,
		Store:  store,
		Bus:    messageBus,
		Logger: logger,
	})
	go ingestor.Run(ctx)

	telegramCh := channel.NewTelegram(channel.TelegramConfig{
		Token:       cfg.Telegram.Token,
		AllowFrom:   cfg.Telegram.AllowFrom,
		ParseMode:   cfg.Telegram.ParseMode,
		PollTimeout: cfg.Telegram.PollTimeout,
		Logger:      logger,
	})

	// A connect failure (bad token, no network) is fatal for the process.
	errCh := make(chan error, 1)
	go func() {
		errCh <- telegramCh.Start(ctx, messageBus)
	}()

	logger.Info("jotbot started", "journal", cfg.Journal.Dir)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("telegram channel: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down...")

	const shutdownTimeout = 10 * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		telegramCh.Stop()
		messageBus.Close()
	}()

	select {
	case <-done:
		logger.Info("shutdown complete")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timed out, forcing exit")
		return fmt.Errorf("shutdown timed out")
	}

	return nil
}

// setupLogger rebuilds the global logger from config (level and optional file).
func setupLogger(cfg *config.Config) error {
	var level slog.Level
	switch cfg.General.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "", "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var out io.Writer = os.Stderr
	if cfg.General.LogFile != "" {
		f, err := os.OpenFile(cfg.General.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}

	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long:  "Get, set, and list configuration values. Changes are saved to the config file.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get a config value (e.g. journal.dir)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			data, _ := json.MarshalIndent(val, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set [path] [value]",
		Short: "Set a config value (e.g. journal.frontMatter false)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return fmt.Errorf("set value: %w", err)
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}
			if err := config.Save(cfgPath, cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			logger.Info("config updated", "path", args[0], "value", args[1], "file", cfgPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all config values (token masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			sanitized := config.Sanitize(cfg)
			data, _ := json.MarshalIndent(sanitized, "", "  ")
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show config file path",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(resolveConfigPath())
		},
	})

	return cmd
}
