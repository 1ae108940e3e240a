package feed

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// QCheck gates how often a live feed is polled when it has nothing new to
// say: the main loop polls a live source with a bounded timeout (default
// 0.5s) each tick, and that patience collapses to zero the moment any
// feed already has live data buffered.
//
// golang.org/x/time/rate.Limiter generalizes a single scan-interval
// ticker into a per-feed, adjustable poll patience: each feed gets its
// own limiter so a fast feed and a slow feed don't share a polling
// budget.
type QCheck struct {
	limiter *rate.Limiter
	base    time.Duration
}

// NewQCheck builds a QCheck with the given base patience (0.5s is a
// reasonable default). A patience of zero polls as fast as possible with
// no wait.
func NewQCheck(patience time.Duration) *QCheck {
	if patience <= 0 {
		return &QCheck{limiter: rate.NewLimiter(rate.Inf, 1), base: 0}
	}
	// One token refilling every `patience`: Wait blocks at most `patience`
	// between successive polls: a bounded-timeout poll.
	return &QCheck{
		limiter: rate.NewLimiter(rate.Every(patience), 1),
		base:    patience,
	}
}

// Collapse sets this feed's patience to zero for the remainder of the
// run: once any feed already has live data, none of them should block the
// tick waiting on a source that has nothing to say this round.
func (q *QCheck) Collapse() {
	q.limiter.SetLimit(rate.Inf)
}

// Wait blocks until the next poll is allowed or ctx is done, whichever
// comes first. It never blocks longer than the configured base patience.
func (q *QCheck) Wait(ctx context.Context) error {
	return q.limiter.Wait(ctx)
}

// DoQCheck collapses qc's patience for the rest of the run once this
// feed's source reports live data. elapsed is not consulted.
func (f *Feed) DoQCheck(qc *QCheck, elapsed time.Duration) {
	if qc == nil {
		return
	}
	if f.source != nil && f.source.HasLiveData() {
		qc.Collapse()
	}
}
