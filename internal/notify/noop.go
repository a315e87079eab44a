package notify

import (
	"context"
	"log/slog"
)

// NoOpNotifier implements Notifier by logging the discarded report. It is
// used when no webhook is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards reports with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendRunReport logs and discards report.
func (n *NoOpNotifier) SendRunReport(_ context.Context, report *Report) error {
	n.log.Debug("run report discarded (no webhook configured)",
		"outcome", report.Outcome(),
		"records", report.Records,
	)
	return nil
}
