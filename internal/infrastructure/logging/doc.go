// Package logging provides structured logging for the controller.
//
// It wraps log/slog. Every record goes to the configured sink (stdout or
// stderr, JSON or text) and, when logging.buffer_size is positive, into an
// in-memory Buffer of recent records. The controller serves that buffer at
// GET /api/v1/log, so startup failures stay visible to an operator without
// shell access.
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//	  buffer_size: 500
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("controller started", "port", 8080)
//
// Never log secrets, tokens or passwords.
package logging
