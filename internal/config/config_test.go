package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Telegram.Token = "123456:ABC-test-token-xyz"
	return cfg
}

// --- Validate ---

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid config, got: %v", err)
	}
}

func TestValidate_EmptyToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = ""
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestValidate_EmptyJournalDir(t *testing.T) {
	cfg := validConfig()
	cfg.Journal.Dir = "  "
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for empty journal dir")
	}
}

func TestValidate_PollTimeout_Boundary(t *testing.T) {
	cfg := validConfig()

	cfg.Telegram.PollTimeout = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for pollTimeout=0")
	}

	cfg.Telegram.PollTimeout = 1
	if err := Validate(cfg); err != nil {
		t.Fatalf("pollTimeout=1 should be valid: %v", err)
	}

	cfg.Telegram.PollTimeout = 301
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for pollTimeout=301")
	}
}

func TestValidate_InvalidParseMode(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.ParseMode = "BBCode"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid parse mode")
	}
}

func TestValidate_ValidParseModes(t *testing.T) {
	for _, mode := range []string{"", "Markdown", "MarkdownV2", "HTML"} {
		cfg := validConfig()
		cfg.Telegram.ParseMode = mode
		if err := Validate(cfg); err != nil {
			t.Fatalf("parse mode %q should be valid: %v", mode, err)
		}
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.General.LogLevel = "verbose"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidate_AttachmentsDirWithSeparator(t *testing.T) {
	cfg := validConfig()
	cfg.Journal.AttachmentsDir = "a/b"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for attachmentsDir containing a separator")
	}
}

func TestValidate_MaxAttachmentBytes(t *testing.T) {
	cfg := validConfig()
	cfg.Journal.MaxAttachmentBytes = 0
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for maxAttachmentBytes=0")
	}
}

// --- Load / Save ---

func TestLoadSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	original := validConfig()
	original.Journal.Dir = filepath.Join(dir, "journal")
	original.Journal.FrontMatter = false

	if err := Save(path, original); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Telegram.Token != original.Telegram.Token {
		t.Errorf("token = %q, want %q", loaded.Telegram.Token, original.Telegram.Token)
	}
	if loaded.Journal.Dir != original.Journal.Dir {
		t.Errorf("dir = %q, want %q", loaded.Journal.Dir, original.Journal.Dir)
	}
	if loaded.Journal.FrontMatter {
		t.Error("frontMatter should stay false")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoad_TokenFromEnv(t *testing.T) {
	t.Setenv("JOTBOT_TEST_TOKEN", "env-token")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	cfg := validConfig()
	cfg.Telegram.Token = "${JOTBOT_TEST_TOKEN}"
	cfg.Journal.Dir = dir
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Telegram.Token != "env-token" {
		t.Errorf("token = %q, want env-token", loaded.Telegram.Token)
	}
}

// --- ExpandEnvVars ---

func TestExpandEnvVars_Basic(t *testing.T) {
	t.Setenv("JOTBOT_VAR", "value")
	if got := ExpandEnvVars("x-${JOTBOT_VAR}-y"); got != "x-value-y" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_Default(t *testing.T) {
	os.Unsetenv("JOTBOT_UNSET")
	if got := ExpandEnvVars("${JOTBOT_UNSET:-fallback}"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestExpandEnvVars_UnsetNoDefault(t *testing.T) {
	os.Unsetenv("JOTBOT_UNSET")
	if got := ExpandEnvVars("${JOTBOT_UNSET}"); got != "${JOTBOT_UNSET}" {
		t.Errorf("got %q, want the pattern kept", got)
	}
}

// --- FlexStringList ---

func TestFlexStringList_MixedTypes(t *testing.T) {
	var f FlexStringList
	if err := json.Unmarshal([]byte(`["123", 456]`), &f); err != nil {
		t.Fatal(err)
	}
	if len(f) != 2 || f[0] != "123" || f[1] != "456" {
		t.Errorf("got %v", f)
	}
}

// --- Sanitize ---

func TestSanitize_MasksToken(t *testing.T) {
	cfg := validConfig()
	masked := Sanitize(cfg)

	if masked.Telegram.Token == cfg.Telegram.Token {
		t.Error("token not masked")
	}
	if !strings.Contains(masked.Telegram.Token, "****") {
		t.Errorf("unexpected mask: %q", masked.Telegram.Token)
	}
	// Original must be untouched.
	if cfg.Telegram.Token != "123456:ABC-test-token-xyz" {
		t.Error("Sanitize mutated the original config")
	}
}

func TestSanitize_ShortToken(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.Token = "short"
	if got := Sanitize(cfg).Telegram.Token; got != "***" {
		t.Errorf("got %q, want ***", got)
	}
}

// --- accessors ---

func TestGetByPath(t *testing.T) {
	cfg := validConfig()
	val, err := GetByPath(cfg, "journal.attachmentsDir")
	if err != nil {
		t.Fatal(err)
	}
	if val != "attachments" {
		t.Errorf("got %v", val)
	}
}

func TestGetByPath_Unknown(t *testing.T) {
	if _, err := GetByPath(validConfig(), "journal.missing"); err == nil {
		t.Fatal("expected error for unknown path")
	}
}

func TestSetByPath_Bool(t *testing.T) {
	cfg := validConfig()
	if err := SetByPath(cfg, "journal.frontMatter", "false"); err != nil {
		t.Fatal(err)
	}
	if cfg.Journal.FrontMatter {
		t.Error("frontMatter should be false")
	}
}

func TestSetByPath_Int(t *testing.T) {
	cfg := validConfig()
	if err := SetByPath(cfg, "telegram.pollTimeoutSeconds", "60"); err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.PollTimeout != 60 {
		t.Errorf("got %d, want 60", cfg.Telegram.PollTimeout)
	}
}

func TestListPaths_ContainsJournalDir(t *testing.T) {
	paths := ListPaths(validConfig())
	if _, ok := paths["journal.dir"]; !ok {
		t.Errorf("journal.dir missing from %v", paths)
	}
}
