// Package broker defines the contract the execution engine consumes
// from a broker implementation: order submission/cancellation, the
// per-tick settlement step, and the notification queue the engine
// drains and hands to each order's owner, plus Sim, a minimal simulated
// broker (sim.go). Margin rules, commission schemes and slippage models
// are not implemented here.
package broker

import "github.com/gobacktest/core/internal/order"

// Broker is the contract engine.Engine drives once per tick.
type Broker interface {
	Start() error
	Stop() error

	// Next settles pending orders against the current bar (fills,
	// margin calls, ...) and queues any resulting notifications.
	Next() error

	Submit(o *order.Order) error
	Cancel(o *order.Order) error

	// GetNotification pops one queued order notification, or nil once
	// the queue is drained for this tick.
	GetNotification() *order.Order

	// SetCOO toggles cheat-on-open: when enabled, orders submitted
	// during the engine's cheat-on-open pass may fill at the bar's open
	// price instead of waiting for the next bar.
	SetCOO(enabled bool)

	Value() float64
	Cash() float64
}
