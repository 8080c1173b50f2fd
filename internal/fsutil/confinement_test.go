// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestConfineRelPath(t *testing.T) {
	baseDir := t.TempDir()

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "simple target", target: "news"},
		{name: "nested target", target: "sub/news"},
		{name: "traversal", target: "../escape", wantErr: true},
		{name: "absolute target", target: "/etc/passwd", wantErr: true},
		{name: "escaped traversal", target: "a/../../escape", wantErr: true},
		{name: "backslash", target: `sub\news`, wantErr: true},
		{name: "dot", target: "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineRelPath(baseDir, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.target)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(got, baseDir) {
				t.Fatalf("path %q does not start with baseDir %q", got, baseDir)
			}
		})
	}
}

func TestConfineRelPath_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation may be restricted on windows")
	}

	baseDir := t.TempDir()
	outsideDir := t.TempDir()

	linkPath := filepath.Join(baseDir, "escape")
	if err := os.Symlink(outsideDir, linkPath); err != nil {
		t.Skipf("symlink not supported: %v", err)
	}

	if _, err := ConfineRelPath(baseDir, "escape"); err == nil {
		t.Fatal("expected symlink escape to be rejected")
	}
}

func TestConfineAbsPath(t *testing.T) {
	baseDir := t.TempDir()
	inside := filepath.Join(baseDir, "target", "catalog.db")
	outside := filepath.Join(t.TempDir(), "catalog.db")

	if _, err := ConfineAbsPath(baseDir, inside); err != nil {
		t.Fatalf("unexpected error for path inside root: %v", err)
	}
	if _, err := ConfineAbsPath(baseDir, outside); err == nil {
		t.Fatal("expected error for path outside root")
	}
	if _, err := ConfineAbsPath(baseDir, "relative/path"); err == nil {
		t.Fatal("expected error for non-absolute target")
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "data.db")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := IsRegularFile(file); err != nil {
		t.Fatalf("unexpected error for regular file: %v", err)
	}
	if err := IsRegularFile(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}
