package repository

import (
	"context"

	"FinSignal/internal/domain/repository"
	applogger "FinSignal/pkg/logger"
)

// LogNotifier writes notifications to the structured log instead of sending them.
type LogNotifier struct {
	logger *applogger.Logger
}

// NewLogNotifier creates a dry-run notifier.
func NewLogNotifier(l *applogger.Logger) repository.Notifier {
	return &LogNotifier{logger: l}
}

func (n *LogNotifier) Send(_ context.Context, text string) error {
	n.logger.Info("notification", applogger.String("text", text))
	return nil
}
