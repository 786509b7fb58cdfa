// Package observability provides the logging, metrics and tracing used by
// the editing core.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry or Prometheus
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
)

// EnrichLogger adds the editing session id to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "session-1a2b3c4d")
//	enriched.Info("panel opened") // includes session_id
func EnrichLogger(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("session_id", sessionID))
}

// LogConnectionDecision logs the outcome of a connection attempt.
// Accepted edges log at debug, refusals at info.
func LogConnectionDecision(logger *slog.Logger, sourceID, targetID string, accepted bool, reason string) {
	if logger == nil {
		return
	}
	if accepted {
		logger.Debug("connection accepted",
			slog.String("source", sourceID),
			slog.String("target", targetID),
		)
		return
	}
	logger.Info("connection rejected",
		slog.String("source", sourceID),
		slog.String("target", targetID),
		slog.String("reason", reason),
	)
}

// LogInvalidProposal logs a malformed connection proposal. This is an
// integration bug, so it logs at error.
func LogInvalidProposal(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Error("invalid connection proposal",
		slog.String("error", err.Error()),
	)
}

// LogPanelTransition logs a change of the panel's open/collapsed state.
func LogPanelTransition(logger *slog.Logger, from, to, trigger string) {
	if logger == nil {
		return
	}
	logger.Debug("panel transition",
		slog.String("from", from),
		slog.String("to", to),
		slog.String("trigger", trigger),
	)
}

// LogPreferencesError logs a preferences failure (non-fatal).
func LogPreferencesError(logger *slog.Logger, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("preferences unavailable",
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// LogStaleUpdate logs an edit aimed at an element that no longer exists.
func LogStaleUpdate(logger *slog.Logger, itemID string) {
	if logger == nil {
		return
	}
	logger.Debug("ignoring update for unknown item",
		slog.String("item_id", itemID),
	)
}
