// Package clock implements the multi-feed tick synchronizer: the piece
// that advances every registered feed once per tick, finds the earliest
// datetime among the feeds that produced a bar (the "datetime master"),
// gives feeds that missed it one more chance via Check, and rewinds any
// feed that overshot past the master's datetime so nothing is delivered
// out of order.
package clock

import (
	"sort"

	"github.com/gobacktest/core/internal/feed"
)

// TickOutcome is the tri-state result of one Sync.Tick call, mirroring
// each feed's own Produced/Pending/Exhausted status one level up.
type TickOutcome int

const (
	// Ticked means every feed at the master datetime now holds a
	// consistent bar; callers should run their per-tick work and call
	// Tick again.
	Ticked TickOutcome = iota
	// Waiting means no feed produced a bar this round but at least one
	// is live and may still produce one later; callers should back off
	// and retry.
	Waiting
	// Done means every feed is exhausted and filters have nothing left
	// to flush; the run is over.
	Done
)

// Feed narrows feed.Feed down to what the synchronizer needs, so tests
// can exercise Sync against lightweight fakes.
type Feed interface {
	Load() (bool, error)
	TickStatus() feed.LoadStatus
	Check(forceMaster bool)
	Last() bool
	Datetime(ago int) float64
	TickFill()
	Rewind(size int)
	IsClone() bool
}

// Sync drives a set of feeds, ordered smallest timeframe first (the
// order a multi-timeframe run expects so the fastest feed is checked
// for new data before slower ones that derive from it).
type Sync struct {
	feeds []Feed
	// DTMaster is the datetime of the feed that led the most recent
	// Ticked outcome; undefined before the first successful tick.
	DTMaster float64
}

// New builds a Sync over feeds, sorted by (timeframe, compression) if
// the concrete type exposes TimeFrame()/Compression(); feeds that don't
// (test fakes) keep their given order relative to each other.
func New(feeds ...Feed) *Sync {
	s := &Sync{feeds: append([]Feed(nil), feeds...)}
	sort.SliceStable(s.feeds, func(i, j int) bool {
		type ranked interface {
			TimeFrame() feed.TimeFrame
			Compression() int
		}
		ri, oki := s.feeds[i].(ranked)
		rj, okj := s.feeds[j].(ranked)
		if !oki || !okj {
			return false
		}
		if ri.TimeFrame() != rj.TimeFrame() {
			return ri.TimeFrame() < rj.TimeFrame()
		}
		return ri.Compression() < rj.Compression()
	})
	return s
}

// Tick advances every feed once and resolves the datetime master for
// this round. See the package doc for the overall protocol.
func (s *Sync) Tick() (TickOutcome, error) {
	produced := make([]bool, len(s.feeds))
	anyProduced := false
	anyPending := false

	for i, f := range s.feeds {
		ok, err := f.Load()
		if err != nil {
			return Waiting, err
		}
		produced[i] = ok
		if ok {
			anyProduced = true
		} else if f.TickStatus() == feed.Pending {
			anyPending = true
		}
	}

	if anyProduced {
		s.resolveMaster(produced)
		return Ticked, nil
	}

	if anyPending {
		for _, f := range s.feeds {
			f.Check(false)
		}
		return Waiting, nil
	}

	flushed := false
	for _, f := range s.feeds {
		if f.Last() {
			flushed = true
		}
	}
	if flushed {
		return s.Tick()
	}
	return Done, nil
}

// resolveMaster finds the minimum datetime among feeds that produced a
// bar, gives every feed that missed it a Check-and-retry, then rewinds
// any feed whose bar landed strictly after the master so only bars at
// the master datetime are left standing; every feed left at or before
// the master, whether or not it produced this tick, gets its missing
// OHLC fields filled in.
func (s *Sync) resolveMaster(produced []bool) {
	dts := make([]float64, len(s.feeds))
	have := make([]bool, len(s.feeds))
	var dt0 float64
	haveAny := false

	for i, f := range s.feeds {
		if !produced[i] {
			continue
		}
		dt := f.Datetime(0)
		dts[i] = dt
		have[i] = true
		if !haveAny || dt < dt0 {
			dt0 = dt
			haveAny = true
		}
	}

	for i, f := range s.feeds {
		if have[i] {
			continue
		}
		f.Check(true)
		if ok, _ := f.Load(); ok {
			dts[i] = f.Datetime(0)
			have[i] = true
		}
	}

	for i, f := range s.feeds {
		if !have[i] {
			continue
		}
		switch {
		case dts[i] > dt0:
			f.Rewind(1)
		default:
			f.TickFill()
		}
	}

	s.DTMaster = dt0
}
