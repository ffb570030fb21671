package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"jotbot/internal/config"
	"jotbot/internal/journal"

	"github.com/spf13/cobra"
)

func setupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Interactive setup: bot token → journal directory → save config",
		Long:  "Prompts for the Telegram bot token and the directory where daily markdown files are saved, verifies the directory is writable, and writes the config to the path used by --config or default.",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := runSetupFlow(resolveConfigPath())
			return err
		},
	}
}

// runSetupFlow gathers the token and journal directory interactively and
// persists them. Also invoked by run on a missing config file.
func runSetupFlow(cfgPath string) (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		cfg = config.Defaults()
	}

	fmt.Println("Welcome to jotbot!")
	fmt.Println("\nFirst-time setup:")

	reader := bufio.NewReader(os.Stdin)
	prompt := func(def string) (string, error) {
		if def != "" {
			fmt.Fprintf(os.Stdout, " [%s]: ", def)
		} else {
			fmt.Fprint(os.Stdout, ": ")
		}
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", err
		}
		s := strings.TrimSpace(line)
		if s == "" && def != "" {
			return def, nil
		}
		return s, nil
	}

	// Step 1: bot token
	fmt.Println("\n--- Step 1: Telegram bot token ---")
	for {
		fmt.Fprint(os.Stdout, "Bot token (from @BotFather)")
		def := ""
		if cfg.Telegram.Token != "" {
			def = "keep current"
		}
		tok, err := prompt(def)
		if err != nil {
			return nil, err
		}
		if tok == "keep current" {
			break
		}
		if tok != "" {
			cfg.Telegram.Token = tok
			break
		}
		fmt.Println("  Token must not be empty.")
	}

	// Step 2: journal directory, probed for writability like the doctor does
	fmt.Println("\n--- Step 2: Journal directory ---")
	for {
		fmt.Fprint(os.Stdout, "Directory for daily markdown files")
		dir, err := prompt(cfg.Journal.Dir)
		if err != nil {
			return nil, err
		}
		dir = config.ExpandPath(dir)
		if dir == "" {
			fmt.Println("  Directory must not be empty.")
			continue
		}
		if err := journal.ProbeWritable(dir); err != nil {
			fmt.Printf("  Error: could not write to directory: %v\n", err)
			continue
		}
		cfg.Journal.Dir = dir
		break
	}
	fmt.Fprintf(os.Stdout, "  Using journal directory: %s\n", cfg.Journal.Dir)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		return nil, err
	}

	fmt.Fprintf(os.Stdout, "\nConfig saved to %s\n", cfgPath)
	fmt.Println("Next: run 'jotbot' (or 'jotbot run') to start journaling.")
	return cfg, nil
}
