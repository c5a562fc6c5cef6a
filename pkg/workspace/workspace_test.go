package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestPrepareCreatesStructure(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")

	prepared, err := Prepare(root)
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}

	for _, sub := range Subdirectories() {
		info, err := os.Stat(filepath.Join(prepared, sub))
		if err != nil {
			t.Fatalf("expected subdir %q: %v", sub, err)
		}
		if !info.IsDir() {
			t.Fatalf("workspace entry %q is not a directory", sub)
		}
	}
}

func TestPrepareDefaultsFromEnv(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "env-ws")
	t.Setenv("HTP_WORKSPACE", dir)

	prepared, err := Prepare("")
	if err != nil {
		t.Fatalf("Prepare returned error: %v", err)
	}
	if prepared != dir {
		t.Fatalf("Prepare used %q, want %q", prepared, dir)
	}
}

func TestCloneAndDatabaseDirs(t *testing.T) {
	if got := CloneDir("/ws"); got != filepath.Join("/ws", "clones") {
		t.Fatalf("CloneDir = %q", got)
	}
	if got := DatabaseDir("/ws"); got != filepath.Join("/ws", "db") {
		t.Fatalf("DatabaseDir = %q", got)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := WithContext(context.Background(), "/tmp/ws")
	root, ok := FromContext(ctx)
	if !ok || root != "/tmp/ws" {
		t.Fatalf("FromContext = %q, %v", root, ok)
	}

	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no workspace on fresh context")
	}
}
