// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"regexp"

	xglog "github.com/ManuGH/xg2g/internal/log"
)

var envRefPattern = regexp.MustCompile(`\$\{env:([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs replaces every ${env:NAME} occurrence in raw with the
// process environment's value of NAME. A reference to an unset variable is
// left literal and logged, matching the teacher's "warn, don't fail"
// posture for optional overlays elsewhere in this package.
func expandEnvRefs(raw []byte) []byte {
	logger := xglog.WithComponent("config")
	return envRefPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := envRefPattern.FindSubmatch(match)[1]
		val, ok := os.LookupEnv(string(name))
		if !ok {
			logger.Warn().
				Str("event", "config.env_ref_unset").
				Str("var", string(name)).
				Msg("referenced environment variable is not set, leaving literal")
			return match
		}
		return []byte(val)
	})
}
