// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrNoConfigPath is returned when a reload is requested but the
	// corresponding artifact was never loaded from a file.
	ErrNoConfigPath = errors.New("config: no file path configured for this artifact")
)
