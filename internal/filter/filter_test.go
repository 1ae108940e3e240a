package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobacktest/core/internal/feed"
)

// tickSource replays a fixed list of bars.
type tickSource struct {
	bars []feed.Bar
	pos  int
}

func (s *tickSource) Start() error        { return nil }
func (s *tickSource) Stop() error         { return nil }
func (s *tickSource) IsLive() bool        { return false }
func (s *tickSource) HasLiveData() bool   { return false }
func (s *tickSource) LoadNext() (feed.LoadResult, error) {
	if s.pos >= len(s.bars) {
		return feed.LoadResult{Status: feed.Exhausted}, nil
	}
	bar := s.bars[s.pos]
	s.pos++
	return feed.LoadResult{Status: feed.Produced, Bar: bar}, nil
}

// minuteBars builds ticks within minute 0 then minute 1 then minute 2,
// using whole-second offsets so the default intraday bucketing (which
// buckets on seconds-of-day) falls into distinct one-minute windows.
func minuteBars() []feed.Bar {
	mk := func(sec float64, o, h, l, c, v float64) feed.Bar {
		return feed.Bar{Datetime: sec / 86400, Open: o, High: h, Low: l, Close: c, Volume: v}
	}
	return []feed.Bar{
		mk(0, 10, 11, 9, 10, 1),
		mk(20, 10, 12, 9, 11, 1),
		mk(40, 11, 13, 10, 12, 1),
		mk(60, 12, 12, 11, 11, 1), // next minute
		mk(80, 11, 11, 10, 10, 1),
		mk(120, 10, 10, 9, 9, 1), // minute after that
	}
}

func newMinuteFeed(src feed.Source) *feed.Feed {
	return feed.New(feed.Config{Name: "t", TimeFrame: feed.Minutes, Compression: 1}, src)
}

func TestResamplerAggregatesOncePerPeriodAndFlushesLast(t *testing.T) {
	src := &tickSource{bars: minuteBars()}
	f := newMinuteFeed(src)
	f.AddFilter(NewResampler(Period{TimeFrame: feed.Minutes, Compression: 1}))

	// A non-live source never blocks, so a single Load call drains raw
	// bars internally until one crosses into the next period, which is
	// when the finished aggregate is finally handed back.
	ok, err := f.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, f.Open(0))
	assert.Equal(t, 13.0, f.High(0))
	assert.Equal(t, 9.0, f.Low(0))
	assert.Equal(t, 12.0, f.Close(0))
	assert.Equal(t, 3.0, f.Volume(0))

	ok, err = f.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12.0, f.Open(0))
	assert.Equal(t, 10.0, f.Close(0))
	assert.Equal(t, 2.0, f.Volume(0))

	// source exhausted mid-aggregate: the third minute never gets a
	// closing tick, so Load reports end-of-stream and only Last flushes
	// what was built so far.
	ok, err = f.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	flushed := f.Last()
	assert.True(t, flushed)
	assert.Equal(t, 9.0, f.Close(0))
}

func TestReplayerEmitsGrowingBarOnEveryTick(t *testing.T) {
	src := &tickSource{bars: minuteBars()[:3]} // all within the first minute
	f := newMinuteFeed(src)
	f.AddFilter(NewReplayer(Period{TimeFrame: feed.Minutes, Compression: 1}))

	var closes []float64
	var volumes []float64
	for i := 0; i < 3; i++ {
		ok, err := f.Load()
		require.NoError(t, err)
		require.True(t, ok)
		closes = append(closes, f.Close(0))
		volumes = append(volumes, f.Volume(0))
	}

	assert.Equal(t, []float64{10, 11, 12}, closes, "close tracks the latest sub-bar each tick")
	assert.Equal(t, []float64{1, 2, 3}, volumes, "volume accumulates across ticks in the same period")
}

func TestReplayerCrossesPeriodBoundaryWithoutLosingTheNewPartial(t *testing.T) {
	src := &tickSource{bars: minuteBars()}
	f := newMinuteFeed(src)
	f.AddFilter(NewReplayer(Period{TimeFrame: feed.Minutes, Compression: 1}))

	var closes []float64
	for i := 0; i < 6; i++ {
		ok, err := f.Load()
		require.NoError(t, err)
		require.True(t, ok)
		closes = append(closes, f.Close(0))
	}

	// three growing ticks of minute 0, then minute 0 finalizes (close 12),
	// then minute 1's first partial (close 11), then a second tick of
	// minute 1 (close 10).
	assert.Equal(t, []float64{10, 11, 12, 12, 11, 10}, closes)
}
