package journal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const defaultMaxAttachmentBytes = 50 * 1024 * 1024

// AttachmentStore downloads message attachments and saves them under
// <dir>/<subdir>/<YYYY-MM-DD>/, returning a relative path suitable for a
// markdown link from the daily file.
type AttachmentStore struct {
	dir      string // journal directory
	subdir   string // e.g. "attachments"
	maxBytes int64
	client   *http.Client
	logger   *slog.Logger
}

type AttachmentStoreConfig struct {
	Dir      string
	Subdir   string // default: "attachments"
	MaxBytes int64  // default: 50MB
	Client   *http.Client
	Logger   *slog.Logger
}

func NewAttachmentStore(cfg AttachmentStoreConfig) *AttachmentStore {
	if cfg.Subdir == "" {
		cfg.Subdir = "attachments"
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxAttachmentBytes
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 60 * time.Second}
	}
	return &AttachmentStore{
		dir:      cfg.Dir,
		subdir:   cfg.Subdir,
		maxBytes: cfg.MaxBytes,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}
}

// Save downloads url and stores it for the given instant. Nameless files
// (photos) get a timestamped name. Returns the stored filename and its
// path relative to the journal directory.
func (s *AttachmentStore) Save(ctx context.Context, at time.Time, name, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("download attachment: unexpected status %s", resp.Status)
	}

	return s.SaveFrom(at, name, resp.Body)
}

// SaveFrom stores attachment content from a reader. Split from Save so the
// copy path is testable without a network.
func (s *AttachmentStore) SaveFrom(at time.Time, name string, r io.Reader) (string, string, error) {
	day := at.Format("2006-01-02")
	dayDir := filepath.Join(s.dir, s.subdir, day)
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create attachments directory: %w", err)
	}

	if name == "" {
		// Telegram photos carry no filename and arrive as JPEG.
		name = "photo_" + at.Format("150405") + ".jpg"
	}
	name = uniqueName(dayDir, sanitizeName(name))

	target := filepath.Join(dayDir, name)
	f, err := os.Create(target)
	if err != nil {
		return "", "", fmt.Errorf("create attachment file: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	cerr := f.Close()
	if err != nil {
		os.Remove(target)
		return "", "", fmt.Errorf("write attachment: %w", err)
	}
	if cerr != nil {
		os.Remove(target)
		return "", "", fmt.Errorf("close attachment: %w", cerr)
	}
	if written > s.maxBytes {
		os.Remove(target)
		return "", "", fmt.Errorf("attachment too large: %d bytes (max: %d)", written, s.maxBytes)
	}

	rel := "./" + path.Join(s.subdir, day, name)
	s.logger.Info("attachment stored", "file", target, "size", written)
	return name, rel, nil
}

// uniqueName adds a counter when the file already exists:
// file.txt -> file(1).txt -> file(2).txt
func uniqueName(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
		return name
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s(%d)%s", base, i, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}

// sanitizeName strips any path components from a client-supplied filename.
func sanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "file"
	}
	return name
}
