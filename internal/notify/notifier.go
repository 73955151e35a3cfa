// Package notify delivers order confirmations to customers. Delivery is
// best-effort: a failed send is reported to the caller but never affects the
// finalized order.
package notify

import (
	"context"
	"fmt"

	"github.com/xenking/pizza-shop/internal/domain/order"
)

// Notifier is the notification sink contract. Send attempts to deliver the
// order confirmation to recipient and returns an error describing the
// delivery failure, if any.
type Notifier interface {
	Send(ctx context.Context, recipient string, rec *order.Record) error
}

// Subject returns the confirmation subject line for an order.
func Subject(rec *order.Record) string {
	return fmt.Sprintf("Order Confirmation #%s", rec.Number)
}

// Body renders the plain-text confirmation email for an order.
func Body(rec *order.Record) string {
	return fmt.Sprintf(`The Pizza Shop

Order Number: %s
Date: %s

%s

Thank you for your order! Your order will be ready to pick up in 30 minutes.
`,
		rec.Number,
		rec.CreatedAt.Format("2006-01-02 15:04:05"),
		rec.Receipt(),
	)
}
