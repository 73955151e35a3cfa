package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes confirmations to the log instead of sending email.
// Used when no SMTP server is configured, e.g. in local development.
type LogNotifier struct {
	lg *zap.Logger
}

// NewLogNotifier creates a LogNotifier using the given logger.
func NewLogNotifier(lg *zap.Logger) *LogNotifier {
	return &LogNotifier{lg: lg}
}

// Send logs the confirmation and always succeeds.
func (n *LogNotifier) Send(_ context.Context, recipient string, rec *order.Record) error {
	n.lg.Info("Order confirmation (email not configured)",
		zap.String("recipient", recipient),
		zap.String("order_number", rec.Number),
		zap.String("body", Body(rec)),
	)
	return nil
}
