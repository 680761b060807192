package linearize

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunNoopWithoutBinary(t *testing.T) {
	if err := Run("", "/nonexistent.pdf"); err != nil {
		t.Errorf("expected no-op with empty binary, got %v", err)
	}
}

func TestRunInvokesBinary(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.pdf")
	if err := os.WriteFile(target, []byte("%PDF-1.7"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if err := Run("true", target); err != nil {
		t.Errorf("Run with /bin/true: %v", err)
	}
}

func TestRunWrapsFailure(t *testing.T) {
	if err := Run("false", "/whatever.pdf"); err == nil {
		t.Errorf("expected an error when the subprocess exits non-zero")
	}
}
