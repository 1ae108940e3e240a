package lineiterator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gobacktest/core/internal/linebuffer"
)

func TestBinaryExprEvaluatesPerBar(t *testing.T) {
	close := linebuffer.New("close")
	open := linebuffer.New("open")
	for _, pair := range [][2]float64{{10, 9}, {11, 12}} {
		close.Forward(linebuffer.NaN, 1)
		open.Forward(linebuffer.NaN, 1)
		close.Set(0, pair[0])
		open.Set(0, pair[1])
	}

	diff := Binary{Op: Sub, L: LineRef{Line: close}, R: LineRef{Line: open}}
	assert.Equal(t, 11.0-12.0, Eval(diff, 0))
	assert.Equal(t, 10.0-9.0, Eval(diff, 1))
}

func TestFillMatchesEvalAcrossRange(t *testing.T) {
	close := linebuffer.New("close")
	for _, v := range []float64{1, 2, 3, 4} {
		close.Forward(linebuffer.NaN, 1)
		close.Set(0, v)
	}
	close.Home()
	doubled := Unary{Op: Neg, A: LineRef{Line: close}}

	out := linebuffer.New("out")
	out.Forward(linebuffer.NaN, 4)
	out.Home()

	Fill(doubled, out, 0, 4)

	for i := 0; i < 4; i++ {
		assert.Equal(t, -float64(i+1), out.GetZero(i, 1)[0])
	}
}

func TestEagerCompareReturnsImmediateBool(t *testing.T) {
	sma := linebuffer.New("sma")
	price := linebuffer.New("price")
	sma.Forward(linebuffer.NaN, 1)
	price.Forward(linebuffer.NaN, 1)
	sma.Set(0, 10)
	price.Set(0, 12)

	assert.True(t, EagerCompare(Gt, LineRef{Line: price}, LineRef{Line: sma}))
	assert.False(t, EagerCompare(Lt, LineRef{Line: price}, LineRef{Line: sma}))
}

func TestDelayShiftsFurtherIntoPast(t *testing.T) {
	close := linebuffer.New("close")
	for _, v := range []float64{1, 2, 3} {
		close.Forward(linebuffer.NaN, 1)
		close.Set(0, v)
	}
	delayed := Delay{Inner: LineRef{Line: close}, N: 1}
	assert.Equal(t, 2.0, Eval(delayed, 0))
}
