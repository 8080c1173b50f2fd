// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import "errors"

var (
	// ErrMissingLogger is returned when logger is not provided.
	ErrMissingLogger = errors.New("logger is required")

	// ErrMissingStreamHandler is returned when the streaming core handler is not provided.
	ErrMissingStreamHandler = errors.New("stream handler is required")

	// ErrManagerNotStarted is returned when trying to shutdown a manager that hasn't started.
	ErrManagerNotStarted = errors.New("manager not started")
)
