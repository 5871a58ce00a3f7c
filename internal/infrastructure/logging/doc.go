// Package logging provides structured logging for SmartAura Core.
//
// It wraps log/slog so every component logs the same way:
//
//   - JSON output for production, text output for development
//   - default fields (service, version) on every record
//   - level filtering (debug, info, warn, error)
//   - output to stdout, stderr or an append-only file
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, or a file path
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	log := logger.Component("sensor")
//	log.Warn("climate read failed", "error", err)
//
// Never log secrets, tokens, passwords or API keys.
package logging
