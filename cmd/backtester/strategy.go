package main

import (
	"log/slog"
	"time"

	"github.com/gobacktest/core/internal/broker"
	"github.com/gobacktest/core/internal/feed"
	"github.com/gobacktest/core/internal/lineiterator"
	"github.com/gobacktest/core/internal/lineseries"
	"github.com/gobacktest/core/internal/order"
	"github.com/gobacktest/core/internal/timer"
)

// smaCrossBehavior is the lineiterator.Behavior passed to
// lineiterator.New; it exists only to keep lineiterator's per-bar Next()
// (no return value) from colliding with engine.Strategy's Next() error,
// which smaCrossStrategy implements separately.
type smaCrossBehavior struct {
	lineiterator.Base
	s *smaCrossStrategy
}

func (b *smaCrossBehavior) Next() { b.s.onBar() }

// smaCrossStrategy is a minimal fast/slow SMA crossover, included as a
// worked example of wiring a Strategy against the indicator and broker
// layers — not a library of trading strategies. It buys when the fast
// average crosses above the slow one and sells out when it crosses back
// below.
type smaCrossStrategy struct {
	it *lineiterator.Iterator

	data      *feed.Feed
	fast      *lineiterator.SMA
	slow      *lineiterator.SMA
	brk       broker.Broker
	orderSize float64
	logger    *slog.Logger

	inPosition bool
	lastErr    error
	orders     []*order.Order
}

func newSMACrossStrategy(data *feed.Feed, brk broker.Broker, fastPeriod, slowPeriod int, orderSize float64, logger *slog.Logger) *smaCrossStrategy {
	s := &smaCrossStrategy{data: data, brk: brk, orderSize: orderSize, logger: logger}

	closeLine := data.Line(feed.LineClose)
	series := lineseries.New(lineseries.Schema{Names: []string{"strategy"}})
	s.it = lineiterator.New(lineiterator.StrategyType, &smaCrossBehavior{s: s}, nil, closeLine, series)

	s.fast = lineiterator.NewSMA(s.it, closeLine, closeLine, fastPeriod)
	s.slow = lineiterator.NewSMA(s.it, closeLine, closeLine, slowPeriod)
	s.it.RecalcPeriod()

	return s
}

// Next drives the iterator (which recomputes the SMAs and then calls
// onBar) and reports whatever error onBar or the broker submit raised.
func (s *smaCrossStrategy) Next() error {
	s.lastErr = nil
	s.it.Next()
	return s.lastErr
}

// NextOpen is a no-op: this strategy only trades on the regular (close)
// pass, not the cheat-on-open pass.
func (s *smaCrossStrategy) NextOpen() error { return nil }

func (s *smaCrossStrategy) Stop() error { return nil }

// NotifyOrder records every order notification the engine routes to
// this strategy, for the end-of-run blotter.
func (s *smaCrossStrategy) NotifyOrder(o *order.Order) {
	s.orders = append(s.orders, o)
}

// NotifyTimer logs the session-end timer's fire, demonstrating that a
// Strategy can opt into timer notifications alongside order/position
// logic by implementing engine.TimerOwner.
func (s *smaCrossStrategy) NotifyTimer(t *timer.Timer, when time.Time) {
	s.logger.Debug("session timer fired", "when", when)
}

func (s *smaCrossStrategy) onBar() {
	fast, slow := s.fast.Line.Get(0), s.slow.Line.Get(0)
	if fast != fast || slow != slow { // still warming up (NaN)
		return
	}

	price := s.data.Close(0)
	crossedUp := fast > slow
	if crossedUp && !s.inPosition {
		o := order.New(s, s.data.Name(), order.Buy, s.orderSize, price)
		if err := s.brk.Submit(o); err != nil {
			s.lastErr = err
			return
		}
		s.inPosition = true
		s.logger.Info("entered position", "data", s.data.Name(), "price", price)
		return
	}
	if !crossedUp && s.inPosition {
		o := order.New(s, s.data.Name(), order.Sell, s.orderSize, price)
		if err := s.brk.Submit(o); err != nil {
			s.lastErr = err
			return
		}
		s.inPosition = false
		s.logger.Info("exited position", "data", s.data.Name(), "price", price)
	}
}
