// Package services contains the step executors: the side-effecting
// collaborators the workflow dispatches through the engine. Each one is
// constructed once at process startup and injected; all of them tolerate
// at-least-once invocation, since the engine may redeliver a step after a
// crash or retry.
package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
)

// PaymentService charges customers. This implementation keeps an in-memory
// ledger; charging the same order twice is a no-op, which is what makes
// redelivery safe.
type PaymentService struct {
	mu      sync.Mutex
	charges map[string]int
}

func NewPaymentService() *PaymentService {
	return &PaymentService{charges: make(map[string]int)}
}

func (s *PaymentService) Charge(ctx context.Context, in domain.ChargeInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.charges[in.OrderID]; exists {
		slog.InfoContext(ctx, "charge already recorded", "order_id", in.OrderID)
		return nil
	}

	s.charges[in.OrderID] = in.AmountCents
	slog.InfoContext(ctx, "charge recorded", "order_id", in.OrderID, "amount_cents", in.AmountCents)
	return nil
}

// ChargedAmount returns the recorded charge for an order, if any.
func (s *PaymentService) ChargedAmount(orderID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, ok := s.charges[orderID]
	return amount, ok
}
