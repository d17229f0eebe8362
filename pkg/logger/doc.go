// Package logger provides a structured logging interface for flickrscrapr.
//
// It wraps zerolog with a small API:
//   - levels Debug, Info, Warn, Error
//   - structured fields via WithField, WithFields and the *WithFields methods
//   - a console writer on stderr, plus a JSON file when configured
//   - a global logger for commands, and TestLogger for assertions in tests
//
// Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("url", pageURL).Info("Scrape triggered")
//
//	log := logger.GetLogger().WithField("component", "relay")
//	log.InfoWithFields("Collector responded", map[string]interface{}{
//	    "endpoint": "/save_metadata",
//	    "body":     body,
//	})
package logger
