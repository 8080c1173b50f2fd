// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ManuGH/xg2g/internal/config"
	"github.com/ManuGH/xg2g/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the runtime environment before starting
// the server: directory writability and listen-address well-formedness
// that config.MainConfig.Validate doesn't cover on its own.
func PerformStartupChecks(ctx context.Context, cfg config.MainConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	for _, dir := range []struct {
		name string
		path string
	}{
		{"working_dir", cfg.WorkingDir},
		{"cache_dir", cfg.Cache.Dir},
		{"backup_dir", cfg.BackupDir},
	} {
		if dir.path == "" {
			continue
		}
		if err := checkDirWritable(logger, dir.name, dir.path); err != nil {
			return fmt.Errorf("%s check failed: %w", dir.name, err)
		}
	}

	if err := checkListenAddr(cfg.Server.ListenAddr); err != nil {
		return fmt.Errorf("server.listen_addr: %w", err)
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkDirWritable(logger zerolog.Logger, name, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("ensure directory %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str("path", path).Str("name", name).Msg("directory is writable")
	return nil
}

func checkListenAddr(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid listen port %q in %q", port, addr)
	}
	return nil
}
