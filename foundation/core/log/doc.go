// Package log provides structured logging for the laplace toolkit.
//
// Package: log
// Title: Structured Logging
// Description: Leveled, structured logging with JSON, text and logfmt output.
//              Loggers are derived immutably with With* methods. Errors built
//              with the foundation error package are logged with their code
//              and details, at a level chosen from their severity.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-15 v0.2.0: Slimmed for the toolkit, synchronous writes only
//
// Usage:
//
//	import mdwlog "github.com/msto63/laplace/foundation/core/log"
//
//	logger := mdwlog.NewWithConfig(mdwlog.Config{
//		Level:  mdwlog.LevelDebug,
//		Format: mdwlog.FormatText,
//		Name:   "minimax",
//	})
//	logger.Debug("exchange step", mdwlog.Fields{"k": 5, "error": 7.2e-5})
//
//	timer := logger.StartTimer("compute")
//	defer timer.Stop()
package log
