package journal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T, maxBytes int64) (*AttachmentStore, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewAttachmentStore(AttachmentStoreConfig{
		Dir:      dir,
		MaxBytes: maxBytes,
		Logger:   testLogger(),
	})
	return s, dir
}

func TestAttachmentStore_SaveFrom_PhotoName(t *testing.T) {
	s, dir := newTestStore(t, 0)

	name, rel, err := s.SaveFrom(entryTime(9, 0, 0), "", strings.NewReader("jpeg bytes"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if name != "photo_090000.jpg" {
		t.Errorf("name = %q", name)
	}
	if rel != "./attachments/2024-01-01/photo_090000.jpg" {
		t.Errorf("rel = %q", rel)
	}

	data, err := os.ReadFile(filepath.Join(dir, "attachments", "2024-01-01", name))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpeg bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestAttachmentStore_SaveFrom_UniqueNameCounter(t *testing.T) {
	s, _ := newTestStore(t, 0)

	at := entryTime(9, 0, 0)
	names := []string{}
	for i := 0; i < 3; i++ {
		name, _, err := s.SaveFrom(at, "notes.txt", strings.NewReader("v"))
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}

	want := []string{"notes.txt", "notes(1).txt", "notes(2).txt"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestAttachmentStore_SaveFrom_TooLarge(t *testing.T) {
	s, dir := newTestStore(t, 4)

	_, _, err := s.SaveFrom(entryTime(9, 0, 0), "big.bin", strings.NewReader("12345"))
	if err == nil {
		t.Fatal("expected size error")
	}

	// The partial file must be cleaned up.
	if _, statErr := os.Stat(filepath.Join(dir, "attachments", "2024-01-01", "big.bin")); !os.IsNotExist(statErr) {
		t.Error("oversized file was not removed")
	}
}

func TestAttachmentStore_SaveFrom_StripsPathComponents(t *testing.T) {
	s, dir := newTestStore(t, 0)

	name, _, err := s.SaveFrom(entryTime(9, 0, 0), "../../evil.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if name != "evil.txt" {
		t.Errorf("name = %q, want evil.txt", name)
	}
	if _, err := os.Stat(filepath.Join(dir, "attachments", "2024-01-01", "evil.txt")); err != nil {
		t.Errorf("file not stored inside attachments dir: %v", err)
	}
}

func TestAttachmentStore_Save_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("file content"))
	}))
	defer srv.Close()

	s, dir := newTestStore(t, 0)

	name, rel, err := s.Save(context.Background(), entryTime(10, 0, 0), "report.pdf", srv.URL)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if name != "report.pdf" {
		t.Errorf("name = %q", name)
	}
	if rel != "./attachments/2024-01-01/report.pdf" {
		t.Errorf("rel = %q", rel)
	}
	data, err := os.ReadFile(filepath.Join(dir, "attachments", "2024-01-01", "report.pdf"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "file content" {
		t.Errorf("content = %q", data)
	}
}

func TestAttachmentStore_Save_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	s, _ := newTestStore(t, 0)

	if _, _, err := s.Save(context.Background(), entryTime(10, 0, 0), "x", srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}
