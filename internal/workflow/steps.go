package workflow

import (
	"context"
	"fmt"

	"github.com/jcmexdev/coffee-sagas/internal/domain"
)

// Step objects bind an executor client to its per-order input so the engine
// can re-invoke them across retry attempts with identical payloads.

type chargeStep struct {
	client PaymentClient
	input  domain.ChargeInput
}

func (s chargeStep) Name() string { return "charge" }

func (s chargeStep) Execute(ctx context.Context) error {
	if err := s.client.Charge(ctx, s.input); err != nil {
		return fmt.Errorf("charge order %s: %w", s.input.OrderID, err)
	}
	return nil
}

type brewStep struct {
	client BrewClient
	input  domain.BrewInput
}

func (s brewStep) Name() string { return "brew" }

func (s brewStep) Execute(ctx context.Context) error {
	if err := s.client.Brew(ctx, s.input); err != nil {
		return fmt.Errorf("brew order %s: %w", s.input.OrderID, err)
	}
	return nil
}

type notifyStep struct {
	client ReceiptClient
	input  domain.ReceiptInput
}

func (s notifyStep) Name() string { return "notify" }

func (s notifyStep) Execute(ctx context.Context) error {
	if err := s.client.SendReceipt(ctx, s.input); err != nil {
		return fmt.Errorf("send receipt for order %s: %w", s.input.OrderID, err)
	}
	return nil
}
