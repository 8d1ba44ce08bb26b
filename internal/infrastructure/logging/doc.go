// Package logging provides structured logging for Heimdall.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the backend and the CLI.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Optional log file and caller information
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr or a file path (appended)
//	  caller: false      # add source file:line to every record
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	defer logger.Close()
//	logger.Info("starting service", "port", 8080)
//	logger.Error("viewer exited", "error", err)
//
// # Security
//
// Never log VNC password file contents or device credentials. Log the
// device ID instead of the username where possible.
package logging
