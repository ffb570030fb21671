package journal

import (
	"fmt"
	"os"
)

// ProbeWritable creates dir if needed and verifies a file can be created in
// it. The probe file is removed before returning.
func ProbeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	f, err := os.CreateTemp(dir, ".jotbot-probe-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}

// ProbeExisting verifies that dir already exists and is writable, without
// creating anything. A missing directory surfaces as the os.Stat error, so
// callers can distinguish "not created yet" from a real failure.
func ProbeExisting(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".jotbot-probe-*")
	if err != nil {
		return fmt.Errorf("directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	os.Remove(name)
	return nil
}
