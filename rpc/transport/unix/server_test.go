package unix

import (
	"net"
	"os"
	"path/filepath"
	"testing"
)

func TestRemoveStaleSocket(t *testing.T) {
	dir := t.TempDir()

	// missing path
	if err := removeStaleSocket(filepath.Join(dir, "missing.sock")); err != nil {
		t.Errorf("Expected no error for a missing path, got %v", err)
	}

	// socket left behind
	socketPath := filepath.Join(dir, "stale.sock")
	l, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("Failed to create socket: %v", err)
	}
	l.(*net.UnixListener).SetUnlinkOnClose(false)
	_ = l.Close()

	if err := removeStaleSocket(socketPath); err != nil {
		t.Errorf("Expected stale socket to be removed, got %v", err)
	}
	if _, err := os.Lstat(socketPath); !os.IsNotExist(err) {
		t.Errorf("Expected socket file to be gone, got %v", err)
	}

	// regular file
	filePath := filepath.Join(dir, "data.txt")
	if err := os.WriteFile(filePath, []byte("keep me"), 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if err := removeStaleSocket(filePath); err == nil {
		t.Error("Expected an error for a regular file")
	}
	if _, err := os.Stat(filePath); err != nil {
		t.Errorf("Expected regular file to survive, got %v", err)
	}
}
