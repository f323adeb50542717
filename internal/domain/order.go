// Package domain holds the value types shared by the order workflow, the
// execution engine and the step services. Everything here is plain data:
// no I/O, no clocks, no randomness. That property is load-bearing — the
// workflow replays these computations after a crash and must arrive at the
// same values every time.
package domain

import (
	"errors"
	"fmt"
)

// DrinkSize selects the base price of an order.
type DrinkSize string

const (
	SizeS DrinkSize = "S"
	SizeM DrinkSize = "M"
	SizeL DrinkSize = "L"
)

// ParseDrinkSize converts external input ("S", "M", "L") into a DrinkSize.
func ParseDrinkSize(s string) (DrinkSize, error) {
	switch DrinkSize(s) {
	case SizeS, SizeM, SizeL:
		return DrinkSize(s), nil
	}
	return "", fmt.Errorf("domain: invalid drink size %q", s)
}

// OrderStatus is the terminal outcome of an order execution.
type OrderStatus string

const (
	// StatusCompleted means every step succeeded.
	StatusCompleted OrderStatus = "COMPLETED"
	// StatusFailed means a step exhausted its retries.
	StatusFailed OrderStatus = "FAILED"
	// StatusCancelled means a cancel signal was observed before completion.
	StatusCancelled OrderStatus = "CANCELLED"
)

var (
	ErrEmptyOrderID = errors.New("domain: order id must not be empty")
	ErrEmptyDrink   = errors.New("domain: drink must not be empty")
)

// OrderRequest is the immutable input that starts an order. It is created by
// the caller and never mutated afterwards.
type OrderRequest struct {
	OrderID string    `json:"order_id"`
	Drink   string    `json:"drink"`
	Size    DrinkSize `json:"size"`
}

// Validate reports whether the request can start an order.
func (r OrderRequest) Validate() error {
	if r.OrderID == "" {
		return ErrEmptyOrderID
	}
	if r.Drink == "" {
		return ErrEmptyDrink
	}
	if _, err := ParseDrinkSize(string(r.Size)); err != nil {
		return err
	}
	return nil
}

// OrderState tracks step progress for a single order. Flags only ever
// transition false→true and are set in strict step order: ReceiptSent
// implies Brewed implies Charged. The workflow owns the only mutable copy.
type OrderState struct {
	Charged     bool `json:"charged"`
	Brewed      bool `json:"brewed"`
	ReceiptSent bool `json:"receipt_sent"`
	Cancelled   bool `json:"cancelled"`
}

// OrderResult is the immutable terminal snapshot of an order. It is built
// exactly once, when the workflow reaches a terminal status, and repeated
// result fetches return the identical value.
type OrderResult struct {
	OrderID     string      `json:"order_id"`
	Status      OrderStatus `json:"status"`
	Charged     bool        `json:"charged"`
	Brewed      bool        `json:"brewed"`
	ReceiptSent bool        `json:"receipt_sent"`
	AmountCents int         `json:"amount_cents"`
}

// StatusSnapshot is the read-only view served by the status query. It is
// valid at any point in the order's life: before pricing AmountCents is 0,
// after termination Status carries the terminal outcome.
type StatusSnapshot struct {
	OrderID     string      `json:"order_id"`
	Charged     bool        `json:"charged"`
	Brewed      bool        `json:"brewed"`
	ReceiptSent bool        `json:"receipt_sent"`
	Cancelled   bool        `json:"cancelled"`
	AmountCents int         `json:"amount_cents"`
	Status      OrderStatus `json:"status,omitempty"` // empty until terminal
}

// Step executor payloads. Each step takes the order id plus the fields it
// needs; the engine hands them to the executor on every retry attempt.

// ChargeInput is the payload for the payment step.
type ChargeInput struct {
	OrderID     string `json:"order_id"`
	AmountCents int    `json:"amount_cents"`
}

// BrewInput is the payload for the brewing step.
type BrewInput struct {
	OrderID string    `json:"order_id"`
	Drink   string    `json:"drink"`
	Size    DrinkSize `json:"size"`
}

// ReceiptInput is the payload for the notification step.
type ReceiptInput struct {
	OrderID string `json:"order_id"`
}
