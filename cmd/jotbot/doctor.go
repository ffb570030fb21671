package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"jotbot/internal/config"
	"jotbot/internal/journal"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your jotbot installation",
		Long: `Verifies that jotbot's configuration, journal directory, and Telegram
connectivity are correctly set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			fmt.Printf("jotbot doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(config.ExpandPath(cfgPath)); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				fmt.Printf("\nRun 'jotbot setup' to create a configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				failed++
				fmt.Printf("\n%d passed, %d failed\n", passed, failed)
				return nil
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Token configured
			if cfg.Telegram.Token == "" {
				printFail("Bot token", "not configured")
				failed++
			} else {
				printPass("Bot token", "configured")
				passed++
			}

			// 4. Journal directory writable. The doctor only inspects;
			// a missing directory is created on the first run, not here.
			switch err := journal.ProbeExisting(cfg.Journal.Dir); {
			case err == nil:
				printPass("Journal directory", cfg.Journal.Dir)
				passed++
			case os.IsNotExist(err):
				printWarn("Journal directory", "not created yet (created on first run)")
				warned++
			default:
				printFail("Journal directory", err.Error())
				failed++
			}

			// 5. Attachments directory writable
			attDir := filepath.Join(cfg.Journal.Dir, cfg.Journal.AttachmentsDir)
			switch err := journal.ProbeExisting(attDir); {
			case err == nil:
				printPass("Attachments directory", attDir)
				passed++
			case os.IsNotExist(err):
				printWarn("Attachments directory", "not created yet (created with the first attachment)")
				warned++
			default:
				printFail("Attachments directory", err.Error())
				failed++
			}

			// 6. Today's journal file
			today := time.Now().Format("2006-01-02")
			todayPath := filepath.Join(cfg.Journal.Dir, today+".md")
			if info, err := os.Stat(todayPath); err == nil {
				printPass("Today's file", fmt.Sprintf("%s (%d bytes)", todayPath, info.Size()))
				passed++
			} else {
				printWarn("Today's file", "not created yet (appears with the first message of the day)")
				warned++
			}

			// 7. Telegram API reachable
			conn, err := net.DialTimeout("tcp", "api.telegram.org:443", 5*time.Second)
			if err != nil {
				printWarn("Telegram API", fmt.Sprintf("unreachable: %v", err))
				warned++
			} else {
				conn.Close()
				printPass("Telegram API", "api.telegram.org reachable")
				passed++
			}

			fmt.Printf("\n%d passed, %d warned, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Println("Fix the failures above, then run 'jotbot doctor' again.")
			}
			return nil
		},
	}
}

func printPass(name, detail string) {
	fmt.Printf("  ✓ %-24s %s\n", name, detail)
}

func printWarn(name, detail string) {
	fmt.Printf("  ! %-24s %s\n", name, detail)
}

func printFail(name, detail string) {
	fmt.Printf("  ✗ %-24s %s\n", name, detail)
}
