package journal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Writer appends entries to daily markdown files under a single directory.
// Each append opens the file, writes once, and closes it; nothing is held
// open between messages.
type Writer struct {
	dir         string
	frontMatter bool
	logger      *slog.Logger
}

type WriterConfig struct {
	Dir         string // journal directory; created on first write
	FrontMatter bool   // write a YAML header when creating a daily file
	Logger      *slog.Logger
}

func NewWriter(cfg WriterConfig) *Writer {
	return &Writer{
		dir:         cfg.Dir,
		frontMatter: cfg.FrontMatter,
		logger:      cfg.Logger,
	}
}

// Dir returns the journal directory.
func (w *Writer) Dir() string { return w.dir }

// FilePath returns the daily file path for a date string like "2024-01-01".
func (w *Writer) FilePath(day string) string {
	return filepath.Join(w.dir, day+".md")
}

// header is the YAML front matter written at the top of a new daily file.
type header struct {
	Date string `yaml:"date"`
	Type string `yaml:"type"`
}

func renderHeader(day string) ([]byte, error) {
	body, err := yaml.Marshal(header{Date: day, Type: "telegram-messages"})
	if err != nil {
		return nil, err
	}
	return append(append([]byte("---\n"), body...), []byte("---\n\n")...), nil
}

// Append writes the entry to the daily file matching its date, creating the
// directory and the file as needed. Returns the file path written to.
func (w *Writer) Append(e Entry) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create journal directory: %w", err)
	}

	day := e.Day()
	path := w.FilePath(day)

	var block []byte
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if w.frontMatter {
			head, err := renderHeader(day)
			if err != nil {
				return "", fmt.Errorf("render front matter: %w", err)
			}
			block = head
		}
	} else {
		block = []byte("\n")
	}
	block = append(block, []byte(e.Markdown())...)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open journal file: %w", err)
	}

	_, werr := f.Write(block)
	cerr := f.Close()
	if werr != nil {
		return "", fmt.Errorf("append entry: %w", werr)
	}
	if cerr != nil {
		return "", fmt.Errorf("close journal file: %w", cerr)
	}

	w.logger.Info("entry appended", "file", path, "sender", e.Sender, "refs", len(e.Refs))
	return path, nil
}
