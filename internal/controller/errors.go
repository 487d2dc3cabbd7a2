package controller

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
)

var (
	// ErrStartup wraps any error that aborts the startup sequence.
	ErrStartup = errors.New("controller: startup failed")

	// ErrNoConfig is returned by New without a configuration.
	ErrNoConfig = fmt.Errorf("controller: config %w", apperr.ErrInvalidArgument)

	// ErrNotReady is returned by accessors used before their phase.
	ErrNotReady = errors.New("controller: component not ready")
)
