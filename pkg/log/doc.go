// Package log provides the logging abstraction shared by sheetbridge components.
//
// Components depend on the Logger interface only. A zerolog-backed adapter is
// provided for the CLI and for embedding applications, and a no-op logger is
// used when the caller does not supply one.
//
// # Usage
//
//	logger := log.NewZerologAdapter(zerolog.InfoLevel)
//	logger.Info("channel opened", log.String("channel", id))
//
// Wrap an already configured zerolog.Logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Derive a logger that stamps every entry with fixed fields:
//
//	chLog := logger.With(log.String("channel", id))
package log
