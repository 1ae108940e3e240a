package lineiterator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gobacktest/core/internal/lineseries"
)

// fakeClock is a minimal Clock backed directly by a counter, standing in
// for a feed's line buffer in these dispatch tests.
type fakeClock struct{ n int }

func (c *fakeClock) Len() int    { return c.n }
func (c *fakeClock) BufLen() int { return c.n }

// sma is a three-period simple moving average used only to exercise the
// Next/Once dispatch contract: the per-bar and vectorized code paths must
// compute identical values. It is test-only scaffolding, not a library
// indicator.
type sma struct {
	Base
	it     *Iterator
	input  *fakeClock
	values []float64 // the input series, addressed by absolute index
	period int
}

func newSMA(owner *Iterator, clock *fakeClock, values []float64, period int) *sma {
	s := &sma{input: clock, values: values, period: period}
	series := lineseries.New(lineseries.Schema{Names: []string{"sma"}})
	s.it = New(IndicatorType, s, owner, clock, series)
	s.it.SetMinPeriod(period)
	return s
}

func (s *sma) Next() {
	out := s.it.Series().Line(0)
	end := out.Len() - 1 // absolute index of "now" in the shared values slice
	sum := 0.0
	for i := end - s.period + 1; i <= end; i++ {
		sum += s.values[i]
	}
	out.Set(0, sum/float64(s.period))
}

func (s *sma) Once(start, end int) {
	out := s.it.Series().Line(0)
	base := out.Idx()
	for i := start; i < end; i++ {
		ago := base - i
		if i+1 < s.period {
			out.Set(ago, math.NaN()) // placeholder; not exercised by this test
			continue
		}
		sum := 0.0
		for j := i - s.period + 1; j <= i; j++ {
			sum += s.values[j]
		}
		// once() addresses absolute positions the same way expr.go's Fill
		// does: ago = out.Idx() - i, so Set resolves to i regardless of
		// where the cursor currently sits.
		out.Set(ago, sum/float64(s.period))
	}
}

func TestNextAndOnceModesAgree(t *testing.T) {
	values := []float64{10, 11, 12, 11, 10, 9, 10, 11}
	period := 3

	// next mode: drive bar-by-bar.
	clock := &fakeClock{}
	s := newSMA(nil, clock, values, period)
	nextResults := make([]float64, len(values))
	for i := range values {
		clock.n = i + 1
		s.it.Next()
		nextResults[i] = s.it.Series().Line(0).Get(0)
	}

	// once mode: drive vectorized.
	clock2 := &fakeClock{n: len(values)}
	s2 := newSMA(nil, clock2, values, period)
	s2.it.Once()
	onceResults := s2.it.Series().Line(0).GetZero(0, len(values))

	for i := period - 1; i < len(values); i++ {
		assert.InDelta(t, nextResults[i], onceResults[i], 1e-9, "bar %d", i)
	}
}

func TestMinPeriodDispatch(t *testing.T) {
	values := []float64{10, 11, 12, 11}
	clock := &fakeClock{}
	s := newSMA(nil, clock, values, 3)

	var calls []string
	wrap := &trackedSMA{sma: s, calls: &calls}
	s.it = New(IndicatorType, wrap, nil, clock, s.it.Series())
	s.it.SetMinPeriod(3)

	for i := range values {
		clock.n = i + 1
		s.it.Next()
	}
	assert.Equal(t, []string{"prenext", "prenext", "nextstart", "next"}, calls)
}

type trackedSMA struct {
	*sma
	calls *[]string
}

func (t *trackedSMA) PreNext()   { *t.calls = append(*t.calls, "prenext") }
func (t *trackedSMA) NextStart() { *t.calls = append(*t.calls, "nextstart") }
func (t *trackedSMA) Next()      { *t.calls = append(*t.calls, "next") }

// trackedStrategy records which of PreNext/NextStart/Next fired on each
// tick, the strategy-side analogue of trackedSMA above.
type trackedStrategy struct {
	Base
	calls *[]string
}

func (t *trackedStrategy) PreNext()   { *t.calls = append(*t.calls, "prenext") }
func (t *trackedStrategy) NextStart() { *t.calls = append(*t.calls, "nextstart") }
func (t *trackedStrategy) Next()      { *t.calls = append(*t.calls, "next") }

func TestStrategyMinPeriodDispatchFiresNextOnEveryBarAfterWarmup(t *testing.T) {
	clock := &fakeClock{}
	var calls []string
	strat := &trackedStrategy{calls: &calls}
	it := New(StrategyType, strat, nil, clock, lineseries.New(lineseries.Schema{Names: []string{"x"}}))
	it.SetMinPeriod(3)

	for i := 0; i < 6; i++ {
		clock.n = i + 1
		it.Next()
	}

	assert.Equal(t, []string{"prenext", "prenext", "nextstart", "next", "next", "next"}, calls)
}

func TestNextForcePropagatesToOwningStrategy(t *testing.T) {
	clock := &fakeClock{n: 1}
	strategySeries := lineseries.New(lineseries.Schema{Names: []string{"x"}})
	strategy := New(StrategyType, Base{}, nil, clock, strategySeries)

	childSeries := lineseries.New(lineseries.Schema{Names: []string{"y"}})
	child := New(IndicatorType, Base{}, strategy, clock, childSeries)
	child.SetNextForce()

	assert.True(t, strategy.NextForce())
}
