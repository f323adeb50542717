package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
)

// NotificationService delivers order receipts. Sending the same receipt
// twice is harmless, so redelivery needs no guard beyond overwriting the
// record.
type NotificationService struct {
	mu   sync.Mutex
	sent map[string]bool
}

func NewNotificationService() *NotificationService {
	return &NotificationService{sent: make(map[string]bool)}
}

func (s *NotificationService) SendReceipt(ctx context.Context, in domain.ReceiptInput) error {
	s.mu.Lock()
	s.sent[in.OrderID] = true
	s.mu.Unlock()

	slog.InfoContext(ctx, "receipt sent", "order_id", in.OrderID)
	return nil
}

// ReceiptSent reports whether a receipt was delivered for the order.
func (s *NotificationService) ReceiptSent(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent[orderID]
}
