// Package order defines the order value type submitted through a
// broker.Broker and the notification callback its owner receives as
// that order moves through its lifecycle.
package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/gobacktest/core/internal/notify"
)

// Side is the direction of an order.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Sell {
		return "Sell"
	}
	return "Buy"
}

// Owner receives lifecycle notifications for orders it submitted. A
// strategy is the usual Owner; engine.Engine falls back to the first
// registered strategy when an order carries no owner of its own.
type Owner interface {
	NotifyOrder(o *Order)
}

// Order is one instruction to a broker: buy or sell Size units of Data
// at Price (a limit) or at market if Price is zero.
type Order struct {
	ID    uuid.UUID
	Owner Owner
	Data  string
	Side  Side
	Size  float64
	Price float64

	Status  notify.OrderStatus
	Created time.Time

	ExecutedSize  float64
	ExecutedPrice float64
	Commission    float64
}

// New returns a pending order with a fresh ID, owned by owner.
func New(owner Owner, data string, side Side, size, price float64) *Order {
	return &Order{
		ID:      uuid.New(),
		Owner:   owner,
		Data:    data,
		Side:    side,
		Size:    size,
		Price:   price,
		Status:  notify.Created,
		Created: time.Now(),
	}
}
