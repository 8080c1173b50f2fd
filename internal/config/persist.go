// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// saveYAML writes v to path via a staged temp file plus atomic rename
// (renameio), matching the indexed document store's commit() discipline
// (4.C) rather than a bare os.Rename, which is not atomic across
// filesystems. A reader never observes a partially-written file.
func saveYAML(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}

	buf, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}

	return renameio.WriteFile(path, buf, 0o640)
}

// backupThenSave copies the current file at path into backupDir, named
// "<base>_YYYYMMDD_HHMMSS", before overwriting it with v. A missing
// current file is not an error (first save has nothing to back up).
func backupThenSave(path, backupDir string, v interface{}, now time.Time) error {
	if backupDir != "" {
		if existing, err := os.ReadFile(path); err == nil {
			if err := os.MkdirAll(backupDir, 0o750); err != nil {
				return fmt.Errorf("mkdir backup dir %s: %w", backupDir, err)
			}
			name := filepath.Base(path) + "_" + now.Format("20060102_150405")
			if err := os.WriteFile(filepath.Join(backupDir, name), existing, 0o640); err != nil {
				return fmt.Errorf("write backup %s: %w", name, err)
			}
		}
	}
	return saveYAML(path, v)
}

// SaveApiProxyConfig persists cfg to path. No backup of the previous file
// is kept. Used by the embedded/user-db migration path in
// Manager.reloadApiProxyLocked.
func SaveApiProxyConfig(path string, cfg ApiProxyConfig) error {
	return saveYAML(path, cfg)
}

// SaveMainConfigWithBackup persists cfg to path, keeping a timestamped
// backup of the previous file under backupDir.
func SaveMainConfigWithBackup(path, backupDir string, cfg MainConfig, now time.Time) error {
	return backupThenSave(path, backupDir, cfg, now)
}
