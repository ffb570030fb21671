package main

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"jotbot/internal/config"

	"github.com/spf13/cobra"
)

func backupCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create a backup of jotbot data (journal + config)",
		Long: `Creates a compressed .tar.gz archive containing the journal tree
(daily files and attachments) and the configuration file. The backup is
timestamped by default.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if outputPath == "" {
				backupDir := filepath.Join(config.DefaultConfigDir(), "backups")
				if err := os.MkdirAll(backupDir, 0o755); err != nil {
					return fmt.Errorf("cannot create backup directory: %w", err)
				}
				ts := time.Now().Format("20060102-150405")
				outputPath = filepath.Join(backupDir, fmt.Sprintf("jotbot-backup-%s.tar.gz", ts))
			}

			count, err := createTarGz(outputPath, cfgPath, cfg.Journal.Dir)
			if err != nil {
				return fmt.Errorf("backup failed: %w", err)
			}

			info, _ := os.Stat(outputPath)
			size := int64(0)
			if info != nil {
				size = info.Size()
			}
			fmt.Printf("Backup created: %s (%s)\n", outputPath, humanSize(size))
			fmt.Printf("Files included: %d\n", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file path (default: ~/.jotbot/backups/jotbot-backup-<timestamp>.tar.gz)")
	return cmd
}

func restoreCmd() *cobra.Command {
	var inputPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore jotbot data from a backup archive",
		Long: `Restores the journal tree and configuration file from a .tar.gz
backup archive created by 'jotbot backup'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" && len(args) > 0 {
				inputPath = args[0]
			}
			if inputPath == "" {
				return fmt.Errorf("specify a backup file: jotbot restore <file.tar.gz>")
			}

			cfgPath := resolveConfigPath()

			// Journal dir comes from the current config when present,
			// otherwise the default location.
			journalDir := config.Defaults().Journal.Dir
			if cfg, err := config.Load(cfgPath); err == nil {
				journalDir = cfg.Journal.Dir
			}
			journalDir = config.ExpandPath(journalDir)

			if !force {
				if _, err := os.Stat(config.ExpandPath(cfgPath)); err == nil {
					fmt.Printf("WARNING: This will overwrite existing data.\n")
					fmt.Printf("  Config:  %s\n", cfgPath)
					fmt.Printf("  Journal: %s\n", journalDir)
					fmt.Printf("Use --force to skip this warning.\n")
					return fmt.Errorf("restore aborted (use --force to proceed)")
				}
			}

			restored, err := extractTarGz(inputPath, cfgPath, journalDir)
			if err != nil {
				return fmt.Errorf("restore failed: %w", err)
			}

			fmt.Printf("Restore completed from: %s\n", inputPath)
			fmt.Printf("Files restored: %d\n", len(restored))
			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "backup file to restore from")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing data without warning")
	return cmd
}

// createTarGz archives the config file (as "config.json") and the journal
// tree (under "journal/"). Returns the number of files archived.
func createTarGz(outputPath, cfgPath, journalDir string) (int, error) {
	outFile, err := os.Create(outputPath)
	if err != nil {
		return 0, err
	}
	defer outFile.Close()

	gzWriter := gzip.NewWriter(outFile)
	defer gzWriter.Close()

	tarWriter := tar.NewWriter(gzWriter)
	defer tarWriter.Close()

	count := 0
	if _, err := os.Stat(cfgPath); err == nil {
		if err := addFileToTar(tarWriter, cfgPath, "config.json"); err != nil {
			return count, fmt.Errorf("add config: %w", err)
		}
		count++
	}

	if _, err := os.Stat(journalDir); err != nil {
		// No journal yet; archive the config alone.
		return count, nil
	}

	err = filepath.WalkDir(journalDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(journalDir, path)
		if err != nil {
			return err
		}
		if err := addFileToTar(tarWriter, path, "journal/"+filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}

	return count, nil
}

func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = archiveName

	if err := tw.WriteHeader(header); err != nil {
		return err
	}

	_, err = io.Copy(tw, file)
	return err
}

// extractTarGz unpacks a backup: "config.json" to cfgPath, "journal/..."
// entries into journalDir. Paths escaping the target are rejected.
func extractTarGz(archivePath, cfgPath, journalDir string) ([]string, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("not a valid gzip file: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)
	var restored []string

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		var targetPath string
		name := filepath.ToSlash(header.Name)
		switch {
		case name == "config.json":
			targetPath = config.ExpandPath(cfgPath)
		case strings.HasPrefix(name, "journal/"):
			rel := strings.TrimPrefix(name, "journal/")
			if strings.Contains(rel, "..") {
				return nil, fmt.Errorf("unsafe path in archive: %s", header.Name)
			}
			targetPath = filepath.Join(journalDir, filepath.FromSlash(rel))
		default:
			continue // unknown entry, skip
		}

		if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
			return nil, err
		}

		outFile, err := os.Create(targetPath)
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", targetPath, err)
		}

		if _, err := io.Copy(outFile, tarReader); err != nil {
			outFile.Close()
			return nil, fmt.Errorf("extract %s: %w", targetPath, err)
		}
		outFile.Close()

		restored = append(restored, targetPath)
	}

	return restored, nil
}

func humanSize(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
