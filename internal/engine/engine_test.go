package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobacktest/core/internal/clock"
	"github.com/gobacktest/core/internal/feed"
	"github.com/gobacktest/core/internal/notify"
	"github.com/gobacktest/core/internal/order"
	"github.com/gobacktest/core/internal/timer"
)

type fakeFeed struct {
	dts []float64
	pos int
}

func (f *fakeFeed) Load() (bool, error) {
	if f.pos >= len(f.dts) {
		return false, nil
	}
	f.pos++
	return true, nil
}
func (f *fakeFeed) TickStatus() feed.LoadStatus { return feed.Exhausted }
func (f *fakeFeed) Check(forceMaster bool)      {}
func (f *fakeFeed) Last() bool                  { return false }
func (f *fakeFeed) Datetime(ago int) float64    { return f.dts[f.pos-1] }
func (f *fakeFeed) TickFill()                   {}
func (f *fakeFeed) Rewind(size int)             { f.pos -= size }
func (f *fakeFeed) IsClone() bool               { return false }

type fakeStrategy struct {
	name        string
	nextCalls   int
	openCalls   int
	notified    []*order.Order
	stopOnTick  int
	eng         *Engine
}

func (s *fakeStrategy) Next() error {
	s.nextCalls++
	if s.stopOnTick != 0 && s.nextCalls == s.stopOnTick {
		s.eng.Stop()
	}
	return nil
}
func (s *fakeStrategy) NextOpen() error        { s.openCalls++; return nil }
func (s *fakeStrategy) Stop() error             { return nil }
func (s *fakeStrategy) NotifyOrder(o *order.Order) { s.notified = append(s.notified, o) }
func (s *fakeStrategy) NotifyTimer(t *timer.Timer, when time.Time) {}

type fakeBroker struct {
	nextCalls     int
	notifications []*order.Order
}

func (b *fakeBroker) Start() error { return nil }
func (b *fakeBroker) Stop() error  { return nil }
func (b *fakeBroker) Next() error  { b.nextCalls++; return nil }
func (b *fakeBroker) Submit(o *order.Order) error { return nil }
func (b *fakeBroker) Cancel(o *order.Order) error { return nil }
func (b *fakeBroker) GetNotification() *order.Order {
	if len(b.notifications) == 0 {
		return nil
	}
	o := b.notifications[0]
	b.notifications = b.notifications[1:]
	return o
}
func (b *fakeBroker) SetCOO(bool)     {}
func (b *fakeBroker) Value() float64  { return 0 }
func (b *fakeBroker) Cash() float64   { return 0 }

func TestRunDrivesEachStrategyOncePerTickUntilExhausted(t *testing.T) {
	f := &fakeFeed{dts: []float64{1, 2, 3}}
	sync := clock.New(f)
	strat := &fakeStrategy{name: "s1"}
	e := New(sync, &fakeBroker{}, Config{}, nil)
	e.AddStrategy(strat)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Ticks)
	assert.Equal(t, "exhausted", result.StopReason)
	assert.Equal(t, 3, strat.nextCalls)
	assert.Equal(t, 0, strat.openCalls, "NextOpen is skipped unless CheatOnOpen is set")
}

func TestCheatOnOpenRunsNextOpenOncePerTick(t *testing.T) {
	f := &fakeFeed{dts: []float64{1}}
	sync := clock.New(f)
	strat := &fakeStrategy{}
	e := New(sync, &fakeBroker{}, Config{CheatOnOpen: true}, nil)
	e.AddStrategy(strat)

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, strat.openCalls)
	assert.Equal(t, 1, strat.nextCalls)
}

func TestStopRequestedDuringNextEndsTheRunAfterThatTick(t *testing.T) {
	f := &fakeFeed{dts: []float64{1, 2, 3}}
	sync := clock.New(f)
	strat := &fakeStrategy{stopOnTick: 1}
	e := New(sync, &fakeBroker{}, Config{}, nil)
	strat.eng = e
	e.AddStrategy(strat)

	result, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stopped", result.StopReason)
	assert.Equal(t, 1, result.Ticks)
	assert.Equal(t, 1, strat.nextCalls)
}

func TestBrokerNotificationsReachTheOrderOwnerOrTheDefaultStrategy(t *testing.T) {
	f := &fakeFeed{dts: []float64{1}}
	sync := clock.New(f)
	owned := &fakeStrategy{name: "owned"}
	first := &fakeStrategy{name: "first"}
	ownedOrder := order.New(owned, "SPY", order.Buy, 10, 0)
	ownedOrder.Status = notify.Accepted
	unownedOrder := order.New(nil, "SPY", order.Sell, 5, 0)

	brk := &fakeBroker{notifications: []*order.Order{ownedOrder, unownedOrder}}
	e := New(sync, brk, Config{}, nil)
	e.AddStrategy(first)
	e.AddStrategy(owned)

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, owned.notified, 1)
	assert.Equal(t, ownedOrder, owned.notified[0])
	require.Len(t, first.notified, 1, "an ownerless order falls back to the first registered strategy")
	assert.Equal(t, unownedOrder, first.notified[0])
}

func TestTimerFiresAgainstTheMasterDatetimeAndNotifiesItsOwner(t *testing.T) {
	f := &fakeFeed{dts: []float64{1}}
	sync := clock.New(f)
	strat := &fakeStrategy{}
	e := New(sync, &fakeBroker{}, Config{}, nil)
	e.AddStrategy(strat)

	fired := false
	tm := timer.New(0)
	tm.Allow = func(time.Time) bool { fired = true; return true }
	e.AddTimer(tm, strat, false, false)

	_, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, fired)
}
