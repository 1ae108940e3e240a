package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobacktest/core/internal/feed"
)

// fakeFeed is a minimal Feed for exercising Sync without a real
// lineseries-backed feed.Feed.
type fakeFeed struct {
	dts       []float64
	pos       int
	status    feed.LoadStatus
	checked   int
	filled    int
	rewound   int
	lastCalls int
}

func (f *fakeFeed) Load() (bool, error) {
	if f.pos >= len(f.dts) {
		f.status = feed.Exhausted
		return false, nil
	}
	f.status = feed.Produced
	f.pos++
	return true, nil
}
func (f *fakeFeed) TickStatus() feed.LoadStatus { return f.status }
func (f *fakeFeed) Check(forceMaster bool)      { f.checked++ }
func (f *fakeFeed) Last() bool                  { f.lastCalls++; return false }
func (f *fakeFeed) Datetime(ago int) float64    { return f.dts[f.pos-1] }
func (f *fakeFeed) TickFill()                   { f.filled++ }
func (f *fakeFeed) Rewind(size int)             { f.pos -= size; f.rewound++ }
func (f *fakeFeed) IsClone() bool               { return false }

func TestTickPicksEarliestDatetimeAsMaster(t *testing.T) {
	fast := &fakeFeed{dts: []float64{1, 2, 3}}
	slow := &fakeFeed{dts: []float64{1, 2, 3}}
	s := New(fast, slow)

	outcome, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, Ticked, outcome)
	assert.Equal(t, 1.0, s.DTMaster)
}

func TestTickRewindsFeedThatOvershotTheMaster(t *testing.T) {
	// the first feed is ahead (its next datetime is 5); the second is at 1.
	ahead := &fakeFeed{dts: []float64{5}}
	behind := &fakeFeed{dts: []float64{1}}
	s := New(ahead, behind)

	outcome, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, Ticked, outcome)
	assert.Equal(t, 1.0, s.DTMaster)
	assert.Equal(t, 1, ahead.rewound, "the feed whose datetime is after the master must be rewound")
	assert.Equal(t, 1, behind.filled, "the feed at the master datetime gets tick-filled")
}

func TestTickReturnsDoneWhenEveryFeedIsExhausted(t *testing.T) {
	a := &fakeFeed{}
	b := &fakeFeed{}
	s := New(a, b)

	outcome, err := s.Tick()
	require.NoError(t, err)
	assert.Equal(t, Done, outcome)
	assert.Equal(t, 1, a.lastCalls)
	assert.Equal(t, 1, b.lastCalls)
}
