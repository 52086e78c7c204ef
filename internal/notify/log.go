package notify

import (
	"context"

	"github.com/edulink/backend/internal/models"
	"go.uber.org/zap"
)

// LogTransport writes events to the log. It is used when Redis is not
// reachable at startup.
type LogTransport struct {
	logger *zap.Logger
}

func NewLogTransport(logger *zap.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Accept(ctx context.Context, event models.NotificationEvent) error {
	t.logger.Info("Notification",
		zap.String("event_id", event.EventID),
		zap.String("account_id", event.AccountID),
		zap.String("category", string(event.Category)),
		zap.ByteString("payload", event.Payload))
	return nil
}
