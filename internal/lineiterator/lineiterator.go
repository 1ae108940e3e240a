// Package lineiterator implements the shared base behavior for any object
// whose value is a function of other lines: indicators, observers, and
// strategies. It owns child iterators, resolves minimum-period bottom-up,
// and dispatches per-bar ("next") vs vectorized ("once") execution.
package lineiterator

import (
	"math"

	"github.com/gobacktest/core/internal/lineseries"
)

var nan = math.NaN()

// Type distinguishes the three kinds of LineIterator the engine treats
// specially: indicators feed strategies, observers record engine/broker
// state for later inspection, strategies drive orders.
type Type int

const (
	IndicatorType Type = iota
	ObserverType
	StrategyType
)

// Clock is anything an iterator can measure its own progress against — by
// default its first input, or its owner if it has none.
type Clock interface {
	Len() int
	BufLen() int
}

// Behavior is the subset of callbacks a concrete indicator/observer/
// strategy implements. Every method has a no-op default: embed Base and
// override only what you need, mirroring the source's empty base-class
// hooks.
type Behavior interface {
	PreNext()
	Next()
	PreOnce(start, end int)
	Once(start, end int)
}

// nextStarter is implemented only by concrete types that want distinct
// behavior for the single bar where the minimum period is first met. Its
// absence is meaningful: when a Behavior does not implement it, Iterator
// falls back to calling Next() for that bar, matching the source's default
// (nextstart's default body is simply "call next").
type nextStarter interface {
	NextStart()
}

// Base implements Behavior as a full set of no-ops; concrete indicators
// embed Base and override only what they need.
type Base struct{}

func (Base) PreNext()               {}
func (Base) Next()                  {}
func (Base) PreOnce(start, end int) {}
func (Base) Once(start, end int)    {}

// Iterator is the engine-facing handle every indicator/observer/strategy
// is built on. It is embedded by value in concrete types, which pass
// themselves as Behavior so the base can dispatch to overrides.
type Iterator struct {
	ltype Type
	owner *Iterator
	clock Clock
	self  Behavior

	series *lineseries.Series

	children   map[Type][]*Iterator
	minperiod  int
	nextForce  bool // this iterator cannot be safely vectorized
	isStrategy bool // convenience: ltype == StrategyType, cached
}

// New wires an Iterator to its behavior, owner, clock, and backing series.
// clock defaults to owner's clock when nil is not allowed here — callers
// resolve the default clock (first data source, else owner) before calling
// New, matching the source's MetaLineIterator.donew resolution order.
func New(ltype Type, self Behavior, owner *Iterator, clock Clock, series *lineseries.Series) *Iterator {
	it := &Iterator{
		ltype:      ltype,
		owner:      owner,
		clock:      clock,
		self:       self,
		series:     series,
		children:   make(map[Type][]*Iterator),
		minperiod:  1,
		isStrategy: ltype == StrategyType,
	}
	if owner != nil {
		owner.addIterator(it)
	}
	return it
}

// Type reports whether this is an indicator, observer, or strategy.
func (it *Iterator) Type() Type { return it.ltype }

// Owner returns the iterator that owns this one, or nil for the root
// (normally the strategy, owned directly by the engine).
func (it *Iterator) Owner() *Iterator { return it.owner }

// Series exposes the backing LineSeries so callers can read/write lines.
func (it *Iterator) Series() *lineseries.Series { return it.series }

// MinPeriod returns the iterator's currently resolved minimum period.
func (it *Iterator) MinPeriod() int { return it.minperiod }

// SetMinPeriod raises the minimum period to at least n (used when an
// iterator learns it needs more warm-up than its inputs alone implied,
// e.g. a window size applied on top of an already-delayed input).
func (it *Iterator) SetMinPeriod(n int) {
	if n > it.minperiod {
		it.minperiod = n
	}
}

// addIterator registers a child, bucketed by its type, and propagates
// next-force up the ownership chain: any indicator that cannot be
// vectorized disables vectorized mode for the whole run, discovered by
// walking from the child up through owners until a StrategyType is found.
func (it *Iterator) addIterator(child *Iterator) {
	it.children[child.ltype] = append(it.children[child.ltype], child)
	if child.nextForce {
		it.propagateNextForce()
	}
}

func (it *Iterator) propagateNextForce() {
	for o := it; o != nil; o = o.owner {
		if o.ltype == StrategyType {
			o.nextForce = true
			return
		}
	}
}

// SetNextForce marks this iterator as unsafe to vectorize and propagates
// that fact up to the owning strategy immediately.
func (it *Iterator) SetNextForce() {
	it.nextForce = true
	it.propagateNextForce()
}

// NextForce reports whether this iterator (usually queried on the root
// strategy after construction) disables runonce mode for the run.
func (it *Iterator) NextForce() bool { return it.nextForce }

// Indicators returns the owned indicator-type children.
func (it *Iterator) Indicators() []*Iterator { return it.children[IndicatorType] }

// Observers returns the owned observer-type children.
func (it *Iterator) Observers() []*Iterator { return it.children[ObserverType] }

// RecalcPeriod is the final bottom-up pass: after every child has
// registered itself and resolved its own period, raise this iterator's
// period to the max of all its indicator children's periods, so it never
// produces a value before any dependency is ready.
func (it *Iterator) RecalcPeriod() {
	max := it.minperiod
	for _, ind := range it.children[IndicatorType] {
		if ind.minperiod > max {
			max = ind.minperiod
		}
	}
	it.minperiod = max
}

// clkUpdate advances this iterator's own lines to match the clock's
// length, appending an empty slot when the clock has moved ahead, then
// returns the clock's current length.
func (it *Iterator) clkUpdate() int {
	clockLen := it.clock.Len()
	if clockLen != it.series.Len() {
		it.series.Forward(nan, 1)
	}
	return clockLen
}

// Next drives one per-bar tick: sync to the clock, recurse into owned
// indicators, then dispatch PreNext/NextStart/Next depending on how far
// along the clock is relative to this iterator's minimum period.
//
// Strategies use a signed "minperiod status" (negative once warmed up,
// zero exactly at warm-up, positive while still warming) so the three
// branches read the same way regardless of how far below the minimum
// period the clock currently sits.
func (it *Iterator) Next() {
	clockLen := it.clkUpdate()

	for _, ind := range it.children[IndicatorType] {
		ind.Next()
	}

	if it.isStrategy {
		switch status := it.minperiod - clockLen; {
		case status < 0:
			it.self.Next()
		case status == 0:
			it.callNextStart()
		default:
			it.self.PreNext()
		}
		return
	}

	switch {
	case clockLen > it.minperiod:
		it.self.Next()
	case clockLen == it.minperiod:
		it.callNextStart()
	case clockLen > 0:
		it.self.PreNext()
	}
}

// callNextStart fires NextStart if the behavior overrides it, otherwise
// falls back to Next() for the bar where the minimum period is first met.
func (it *Iterator) callNextStart() {
	if ns, ok := it.self.(nextStarter); ok {
		ns.NextStart()
		return
	}
	it.self.Next()
}

// Once drives the full vectorized pass: forward every line to the clock's
// buffered length, recurse into indicators, home everything back to the
// start, then call PreOnce and Once across the appropriate ranges
// and finally flush every line's bindings in bulk.
func (it *Iterator) Once() {
	it.series.Forward(nan, it.clock.BufLen())

	for _, ind := range it.children[IndicatorType] {
		ind.Once()
	}
	for _, obs := range it.children[ObserverType] {
		obs.series.Forward(nan, it.series.Len())
	}

	// Len() must be captured before Home() resets it to 0 below.
	length := it.series.Len()

	for _, ind := range it.children[IndicatorType] {
		ind.series.Home()
	}
	for _, obs := range it.children[ObserverType] {
		obs.series.Home()
	}
	it.series.Home()

	// The source dispatches a separate "oncestart" hook for the single bar
	// at minperiod-1, whose default behavior is simply to call once() over
	// that one-bar range. Since every concrete indicator in this module
	// uses the same formula for that bar as for the rest, the range is
	// folded directly into once() instead of keeping a third hook that
	// would always forward to it.
	it.self.PreOnce(0, it.minperiod-1)
	it.self.Once(it.minperiod-1, length)

	for _, line := range it.series.Lines() {
		line.OnceBinding()
	}
}
