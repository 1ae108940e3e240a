package lineiterator

import (
	"github.com/gobacktest/core/internal/lineseries"
	"github.com/gobacktest/core/internal/linebuffer"
)

var smaSchema = lineseries.Schema{Names: []string{"sma"}}

// SMA is a minimal simple-moving-average indicator: a worked example of
// wiring a concrete Indicator atop Iterator, not a library of indicator
// formulas. It owns a single output line and reads directly off an input
// LineBuffer (typically a feed's close line).
type SMA struct {
	Base

	Line *linebuffer.Buffer

	it     *Iterator
	input  *linebuffer.Buffer
	period int
}

// NewSMA builds an SMA of the given period, reading from input and
// clocked against clock (normally the same buffer as input, mirroring the
// source's convention that an indicator's default clock is its first
// data line).
func NewSMA(owner *Iterator, clock Clock, input *linebuffer.Buffer, period int) *SMA {
	series := lineseries.New(smaSchema)
	s := &SMA{Line: series.Line(0), input: input, period: period}
	s.it = New(IndicatorType, s, owner, clock, series)
	s.it.SetMinPeriod(period)
	return s
}

// Iterator exposes the underlying Iterator handle, the same way every
// other indicator/observer/strategy does.
func (s *SMA) Iterator() *Iterator { return s.it }

// Next computes the average of the last period values of input, per-bar.
func (s *SMA) Next() {
	sum := 0.0
	for i := 0; i < s.period; i++ {
		sum += s.input.Get(i)
	}
	s.Line.Set(0, sum/float64(s.period))
}

// Once computes the same average vectorized across [start, end), mirroring
// Expr.Fill's convention: ago = out.Idx() - i addresses absolute position i
// regardless of where the cursor sits, and the same ago, offset by j,
// reaches the j-bars-further-back input value Next sums at bar i.
func (s *SMA) Once(start, end int) {
	base := s.Line.Idx()
	for i := start; i < end; i++ {
		ago := base - i
		sum := 0.0
		for j := 0; j < s.period; j++ {
			sum += s.input.Get(ago + j)
		}
		s.Line.Set(ago, sum/float64(s.period))
	}
}
