package broker

import (
	"fmt"

	"github.com/gobacktest/core/internal/notify"
	"github.com/gobacktest/core/internal/order"
)

// Sim is a minimal fixed-price-fill broker: every submitted order fills
// in full, immediately, at its submitted price, with no commission,
// slippage, or margin accounting. It is a worked example of the Broker
// contract that lets cmd/backtester run end to end, not a concrete
// broker simulator — there is no order book, no partial fills, no
// pricing model.
type Sim struct {
	cash    float64
	pending []*order.Order
	notices []*order.Order
}

// NewSim returns a Sim seeded with startingCash.
func NewSim(startingCash float64) *Sim {
	return &Sim{cash: startingCash}
}

// Start and Stop are no-ops; Sim holds no external resources.
func (s *Sim) Start() error { return nil }
func (s *Sim) Stop() error  { return nil }

// SetCOO is a no-op: Sim fills on the same tick it is driven on
// regardless of cheat-on-open/cheat-on-close, since it has no notion of
// bar open vs. close pricing.
func (s *Sim) SetCOO(enabled bool) {}

// Submit queues o to fill on the next Next call.
func (s *Sim) Submit(o *order.Order) error {
	o.Status = notify.Submitted
	s.pending = append(s.pending, o)
	return nil
}

// Cancel removes a still-pending order.
func (s *Sim) Cancel(o *order.Order) error {
	for i, p := range s.pending {
		if p == o {
			o.Status = notify.Canceled
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			s.notices = append(s.notices, o)
			return nil
		}
	}
	return fmt.Errorf("broker.Sim: order %s is not pending", o.ID)
}

// Next fills every pending order in full at its submitted price and
// marks it Completed.
func (s *Sim) Next() error {
	for _, o := range s.pending {
		o.Status = notify.Completed
		o.ExecutedSize = o.Size
		o.ExecutedPrice = o.Price

		cost := o.Size * o.Price
		if o.Side == order.Buy {
			s.cash -= cost
		} else {
			s.cash += cost
		}
		s.notices = append(s.notices, o)
	}
	s.pending = nil
	return nil
}

// GetNotification drains one pending order notification, or nil.
func (s *Sim) GetNotification() *order.Order {
	if len(s.notices) == 0 {
		return nil
	}
	o := s.notices[0]
	s.notices = s.notices[1:]
	return o
}

// Value reports cash only: Sim tracks no open positions, so it cannot
// mark a portfolio to market.
func (s *Sim) Value() float64 { return s.cash }

// Cash reports the broker's current cash balance.
func (s *Sim) Cash() float64 { return s.cash }
