// Package engine implements the run driver: it binds a feed clock, a
// broker, a set of strategies, timers, and writers together and runs
// the main next-by-next loop until every feed is exhausted or the run
// is stopped.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/gobacktest/core/internal/broker"
	"github.com/gobacktest/core/internal/clock"
	"github.com/gobacktest/core/internal/order"
	"github.com/gobacktest/core/internal/timer"
)

// Strategy is driven once per tick at the master datetime, and once
// more before that if CheatOnOpen is enabled and the feed's open is
// already known.
type Strategy interface {
	order.Owner
	Next() error
	NextOpen() error
	Stop() error
}

// TimerOwner receives a timer's fire notification; a Strategy may also
// implement this to be notified directly in addition to the timer's
// own owner.
type TimerOwner interface {
	NotifyTimer(t *timer.Timer, when time.Time)
}

// Writer is driven once per tick after strategies, for per-tick
// output (a CSV row, a log line, ...).
type Writer interface {
	Next() error
	Stop() error
}

// registeredTimer pairs a Timer with the owner notified when it fires.
type registeredTimer struct {
	timer            *timer.Timer
	owner            TimerOwner
	cheat            bool
	notifyStrategies bool
}

// Config holds the run-wide switches cerebro.py exposes as params.
type Config struct {
	// CheatOnOpen runs each strategy's NextOpen pass against the bar
	// that just became the tick's master before the broker settles
	// orders, letting a strategy react to the open instead of only the
	// close.
	CheatOnOpen bool
	// PollInterval bounds how long Run waits between retries while the
	// clock reports Waiting (a live feed with nothing new yet).
	PollInterval time.Duration
}

// Result summarizes one completed Run call, the hand-off an optimizer
// or a results store reads back.
type Result struct {
	Ticks      int
	StopReason string
	DTMaster   float64
}

// Engine binds a clock.Sync to the strategies, broker, timers, and
// writers it drives each tick.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	sync   *clock.Sync
	broker broker.Broker

	strategies []Strategy
	timers     []registeredTimer
	writers    []Writer

	stopRequested bool
}

// New returns an Engine driving sync, with no strategies/timers/writers
// registered yet.
func New(sync *clock.Sync, brk broker.Broker, cfg Config, logger *slog.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 200 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg, logger: logger, sync: sync, broker: brk}
}

func (e *Engine) AddStrategy(s Strategy) { e.strategies = append(e.strategies, s) }

func (e *Engine) AddWriter(w Writer) { e.writers = append(e.writers, w) }

// AddTimer registers t to fire against the run's master datetime. When
// cheat is true, t is checked before the broker settles the tick's
// orders (the session-open pass); otherwise it is checked alongside
// the strategies' normal Next pass. When notifyStrategies is true,
// every registered Strategy that implements TimerOwner is notified in
// addition to owner.
func (e *Engine) AddTimer(t *timer.Timer, owner TimerOwner, cheat, notifyStrategies bool) {
	e.timers = append(e.timers, registeredTimer{timer: t, owner: owner, cheat: cheat, notifyStrategies: notifyStrategies})
}

// Stop requests that Run return. The flag is checked at the start of
// each tick, after each strategy's NextOpen, after broker notification,
// and after each strategy's Next, never mid-strategy. Run has no store
// or data notification step, so there is no checkpoint there.
func (e *Engine) Stop() { e.stopRequested = true }

// Run drives the main loop until every feed is exhausted, Stop is
// called, or ctx is canceled.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	result := Result{}

	for {
		if e.stopRequested {
			result.StopReason = "stopped"
			return result, nil
		}
		select {
		case <-ctx.Done():
			result.StopReason = "context canceled"
			return result, ctx.Err()
		default:
		}

		outcome, err := e.sync.Tick()
		if err != nil {
			return result, err
		}

		switch outcome {
		case clock.Done:
			result.StopReason = "exhausted"
			return result, nil

		case clock.Waiting:
			select {
			case <-ctx.Done():
				result.StopReason = "context canceled"
				return result, ctx.Err()
			case <-time.After(e.cfg.PollInterval):
			}
			continue

		case clock.Ticked:
			result.Ticks++
			result.DTMaster = e.sync.DTMaster
			if err := e.runTick(); err != nil {
				return result, err
			}
			if e.stopRequested {
				result.StopReason = "stopped"
				return result, nil
			}
		}
	}
}

func (e *Engine) runTick() error {
	dt0 := e.sync.DTMaster

	e.checkTimers(dt0, true)
	if e.cfg.CheatOnOpen {
		for _, s := range e.strategies {
			if err := s.NextOpen(); err != nil {
				return err
			}
			if e.stopRequested {
				return nil
			}
		}
	}

	if err := e.brokerNotify(); err != nil {
		return err
	}
	if e.stopRequested {
		return nil
	}

	e.checkTimers(dt0, false)
	for _, s := range e.strategies {
		if err := s.Next(); err != nil {
			return err
		}
		if e.stopRequested {
			return nil
		}
	}

	for _, w := range e.writers {
		if err := w.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) checkTimers(dt0 float64, cheat bool) {
	for _, rt := range e.timers {
		if rt.cheat != cheat {
			continue
		}
		if !rt.timer.Check(dt0) {
			continue
		}
		if rt.owner != nil {
			rt.owner.NotifyTimer(rt.timer, rt.timer.LastWhen)
		}
		if rt.notifyStrategies {
			for _, s := range e.strategies {
				if to, ok := s.(TimerOwner); ok {
					to.NotifyTimer(rt.timer, rt.timer.LastWhen)
				}
			}
		}
	}
}

func (e *Engine) brokerNotify() error {
	if e.broker == nil {
		return nil
	}
	if err := e.broker.Next(); err != nil {
		return err
	}
	for {
		o := e.broker.GetNotification()
		if o == nil {
			return nil
		}
		owner := o.Owner
		if owner == nil && len(e.strategies) > 0 {
			owner = e.strategies[0]
		}
		if owner != nil {
			owner.NotifyOrder(o)
		}
		e.logger.Debug("order notification", "id", o.ID, "status", o.Status)
	}
}
