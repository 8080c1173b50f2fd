// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/xg2g/internal/app/bootstrap"
	"github.com/ManuGH/xg2g/internal/config"
	xglog "github.com/ManuGH/xg2g/internal/log"
	"github.com/ManuGH/xg2g/internal/version"
)

// repeatableFlag collects every occurrence of a flag passed more than once,
// e.g. --target main --target backup.
type repeatableFlag []string

func (r *repeatableFlag) String() string { return strings.Join(*r, ",") }
func (r *repeatableFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	var configPath, configPathAlias, sourcePath, mappingPath, apiProxyPath, logLevel string
	var targets repeatableFlag
	var serverMode, genPwd, healthcheckFlag bool

	flag.StringVar(&configPath, "config-path", "", "path to the main configuration file (YAML)")
	flag.StringVar(&configPathAlias, "config", "", "alias for --config-path")
	flag.StringVar(&sourcePath, "source", "", "path to the sources configuration file (YAML)")
	flag.StringVar(&mappingPath, "mapping", "", "path to the mappings configuration file (YAML)")
	flag.StringVar(&apiProxyPath, "api-proxy", "", "path to the api-proxy configuration file (YAML)")
	flag.Var(&targets, "target", "restrict ingestion to this target (repeatable, default: all configured targets)")
	flag.BoolVar(&serverMode, "server", false, "run as a long-lived server instead of a one-shot ingest")
	flag.StringVar(&logLevel, "log-level", "", "override the configured log level")
	flag.BoolVar(&genPwd, "genpwd", false, "print a generated credential and exit")
	flag.BoolVar(&healthcheckFlag, "healthcheck", false, "probe the readiness endpoint (/readyz) on localhost:8088 and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		return
	}

	if genPwd {
		pwd, err := generatePassword()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate password: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(pwd)
		return
	}

	if healthcheckFlag {
		os.Exit(runHealthcheckCLI(nil))
	}

	xglog.Configure(xglog.Config{Level: "info", Service: "xg2g", Version: version.Version})
	logger := xglog.WithComponent("daemon")

	if configPath == "" {
		configPath = configPathAlias
	}

	paths := config.ConfigPaths{
		ConfigPath:   configPath,
		SourcePath:   sourcePath,
		MappingPath:  mappingPath,
		ApiProxyPath: apiProxyPath,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := bootstrap.WireServices(ctx, bootstrap.Options{
		Paths:   paths,
		Targets: targets,
		Version: version.Version,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "bootstrap.failed").Msg("failed to wire services")
	}

	// Applied after WireServices, which configures logging from the main config.
	if logLevel != "" {
		xglog.Configure(xglog.Config{Level: logLevel, Service: "xg2g", Version: version.Version})
		logger = xglog.WithComponent("daemon")
	}

	if !serverMode {
		logger.Info().Str("event", "ingest.complete").Msg("one-shot ingest complete, exiting (pass --server to run as a daemon)")
		return
	}

	logger.Info().Str("event", "startup").Str("version", version.Version).Str("commit", version.Commit).Str("build_date", version.Date).Msg("starting xg2g")

	if err := container.Run(ctx); err != nil {
		logger.Fatal().Err(err).Str("event", "daemon.failed").Msg("daemon stopped with error")
	}

	logger.Info().Msg("server exiting")
}

// generatePassword mints a URL-safe random credential for --genpwd. This is
// the one ambient CLI utility with no analogue anywhere in the dependency
// pack, so it stays on crypto/rand rather than reaching for a library.
func generatePassword() (string, error) {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
