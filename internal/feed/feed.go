// Package feed implements the data-feed abstraction: a LineSeries
// specialized with the fixed OHLCV schema, time-range filtering, timezone
// localization, an ordered filter pipeline (resample/replay), and a
// notification queue. Clones share the source's values but carry an
// independent cursor.
package feed

import (
	"fmt"
	"math"
	"time"

	"github.com/gobacktest/core/internal/lineseries"
)

var nan = math.NaN()

// Schema is the fixed OHLCV record layout: datetime, open, high, low,
// close, volume, open_interest, each line indexed 0..6.
var Schema = lineseries.Schema{
	Names: []string{"datetime", "open", "high", "low", "close", "volume", "openinterest"},
}

const (
	LineDatetime = iota
	LineOpen
	LineHigh
	LineLow
	LineClose
	LineVolume
	LineOpenInterest
)

// TimeFrame is the unit half of a feed's (timeframe, compression) pair.
type TimeFrame int

const (
	Ticks TimeFrame = iota
	Microseconds
	Seconds
	Minutes
	Days
	Weeks
	Months
	Years
)

// Bar is one raw OHLCV row as handed back by a concrete Source.
type Bar struct {
	Datetime     float64 // day-number.fraction, see numtime package doc
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	OpenInterest float64
}

func (b Bar) values() [7]float64 {
	return [7]float64{b.Datetime, b.Open, b.High, b.Low, b.Close, b.Volume, b.OpenInterest}
}

// LoadStatus is the outcome of one Source.LoadNext call.
type LoadStatus int

const (
	Produced LoadStatus = iota
	Pending
	Exhausted
)

// LoadResult is the outcome of a single load attempt: either a delivered
// bar, a pending status (more data may arrive later, as with a live
// source), or a clean end-of-stream.
type LoadResult struct {
	Status LoadStatus
	Bar    Bar
}

// Source is the feed source contract: every concrete adapter (CSV
// reader, dataframe bridge, broker API client) implements this. The core
// only consumes this interface; CSVSource is the one concrete source in
// this package.
type Source interface {
	Start() error
	Stop() error
	LoadNext() (LoadResult, error)
	IsLive() bool
	HasLiveData() bool
}

// Preloadable is implemented by anything that can eagerly drain its
// source, such as Feed. The engine does not call Preload.
type Preloadable interface {
	Preload() (int, error)
}

// Filter is one stage of a feed's bar-aggregation pipeline (resample,
// replay, session filtering, ...). OnBar may mutate the feed's current
// bar, push bars onto the feed's stack/stash, and returns true when the
// current bar was fully consumed (so it must not propagate further).
type Filter interface {
	OnBar(f *Feed) bool
}

// LastFlusher is implemented by filters that hold a pending partial bar
// that must be flushed at end-of-stream.
type LastFlusher interface {
	Last(f *Feed) bool
}

// Checker is implemented by filters that need a chance to act on a tick
// where the feed itself did not produce a bar.
type Checker interface {
	Check(f *Feed, forceMaster bool)
}

// NotificationCode enumerates the connection-state notifications a feed
// can report.
type NotificationCode int

const (
	Connected NotificationCode = iota
	Disconnected
	ConnBroken
	Delayed
	Live
	NotSubscribed
	NotSupportedTimeframe
	Unknown
)

// Notification is one status transition delivered to strategies/engine
// callbacks. Transitions to the same code are suppressed by PutNotification.
type Notification struct {
	Code NotificationCode
	Args []any
}

// Config fixes the static attributes of a Feed at construction time.
type Config struct {
	Name         string
	TimeFrame    TimeFrame
	Compression  int
	FromDate     float64 // 0 means "no lower bound"
	ToDate       float64 // 0 means "no upper bound"
	SessionStart time.Duration // offset into the day
	SessionEnd   time.Duration
	InputTZ      *time.Location // nil means "already UTC"
	OutputTZ     *time.Location
}

// Feed is a LineSeries specialized with the OHLCV schema plus the
// date-range, timezone, filter-pipeline, and notification state a data
// feed needs.
type Feed struct {
	*lineseries.Series
	cfg    Config
	source Source
	name   string

	filters []Filter

	barstack [][7]float64
	barstash [][7]float64

	notifications []Notification
	lastCode      NotificationCode
	haveLastCode  bool

	live    bool
	isClone bool
	source0 *Feed // set only on clones: the feed this one mirrors

	triStatus LoadStatus // tri-state outcome of the most recent Load call
}

// New builds a Feed bound to source, with cfg's date range and timeframe.
func New(cfg Config, source Source) *Feed {
	if cfg.ToDate == 0 {
		cfg.ToDate = 1e18
	}
	return &Feed{
		Series: lineseries.New(Schema),
		cfg:    cfg,
		source: source,
		name:   cfg.Name,
	}
}

// Name returns the feed's configured name (used in logs and by the clock
// synchronizer to report which feed is the datetime master).
func (f *Feed) Name() string { return f.name }

// TimeFrame and Compression expose the feed's (unit, count) pair, used by
// the clock synchronizer to sort feeds and by resamplers/replayers to know
// their target granularity.
func (f *Feed) TimeFrame() TimeFrame { return f.cfg.TimeFrame }
func (f *Feed) Compression() int     { return f.cfg.Compression }

// AddFilter appends a pipeline stage. Filters run in registration order.
func (f *Feed) AddFilter(filt Filter) { f.filters = append(f.filters, filt) }

// IsLive reports whether the underlying source is a live feed.
func (f *Feed) IsLive() bool {
	if f.isClone {
		return f.source0.IsLive()
	}
	return f.source != nil && f.source.IsLive()
}

// IsClone reports whether this feed is a read-only clone of another.
func (f *Feed) IsClone() bool { return f.isClone }

// PutNotification appends a status transition, suppressing immediate
// repeats of the same code.
func (f *Feed) PutNotification(code NotificationCode, args ...any) {
	if f.haveLastCode && f.lastCode == code {
		return
	}
	f.lastCode = code
	f.haveLastCode = true
	f.notifications = append(f.notifications, Notification{Code: code, Args: args})
}

// GetNotifications drains and returns every pending notification.
func (f *Feed) GetNotifications() []Notification {
	out := f.notifications
	f.notifications = nil
	return out
}

// Start starts the underlying source (clones delegate to their source
// feed instead; they never own a Source of their own).
func (f *Feed) Start() error {
	if f.isClone {
		return nil
	}
	if f.source == nil {
		return fmt.Errorf("feed %s: no source configured", f.name)
	}
	return f.source.Start()
}

// Stop stops the underlying source.
func (f *Feed) Stop() error {
	if f.isClone || f.source == nil {
		return nil
	}
	return f.source.Stop()
}

// addToStack pushes bar onto barstack (or barstash) for later delivery —
// the mechanism filters use to defer or re-inject bars.
func (f *Feed) addToStack(bar [7]float64, stash bool) {
	if stash {
		f.barstash = append(f.barstash, bar)
	} else {
		f.barstack = append(f.barstack, bar)
	}
}

// saveToStack captures the current bar's values onto a stack, optionally
// popping the cursor back afterward — filters use this to hold the
// current bar (e.g. a resampler replacing it with an aggregate later).
func (f *Feed) saveToStack(erase, force, stash bool) {
	var bar [7]float64
	for i, l := range f.Lines() {
		bar[i] = l.Get(0)
	}
	f.addToStack(bar, stash)
	if erase {
		f.Backward(1, force)
	}
}

// fromStack pops one bar off barstack (or barstash) into the current
// slot, optionally advancing the cursor first.
func (f *Feed) fromStack(forward, stash bool) bool {
	coll := &f.barstack
	if stash {
		coll = &f.barstash
	}
	if len(*coll) == 0 {
		return false
	}
	if forward {
		f.Forward(nan, 1)
	}
	bar := (*coll)[0]
	*coll = (*coll)[1:]
	for i, l := range f.Lines() {
		l.Set(0, bar[i])
	}
	return true
}

// updateBar loads bar's values into the current slot (optionally
// advancing first) — used by resamplers to commit an aggregated bar.
func (f *Feed) updateBar(bar [7]float64, forward bool, ago int) {
	if forward {
		f.Forward(nan, 1)
	}
	for i, l := range f.Lines() {
		l.Set(ago, bar[i])
	}
}

// Datetime returns the current bar's datetime at ago (ago=0 is "now").
func (f *Feed) Datetime(ago int) float64 { return f.Line(LineDatetime).Get(ago) }

// Close/Open/High/Low/Volume/OpenInterest are thin accessors over the
// fixed schema indices, an explicit named lookup instead of a raw index
// into Lines().
func (f *Feed) Open(ago int) float64         { return f.Line(LineOpen).Get(ago) }
func (f *Feed) High(ago int) float64         { return f.Line(LineHigh).Get(ago) }
func (f *Feed) Low(ago int) float64          { return f.Line(LineLow).Get(ago) }
func (f *Feed) Close(ago int) float64        { return f.Line(LineClose).Get(ago) }
func (f *Feed) Volume(ago int) float64       { return f.Line(LineVolume).Get(ago) }
func (f *Feed) OpenInterest(ago int) float64 { return f.Line(LineOpenInterest).Get(ago) }
