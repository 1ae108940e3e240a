package lineiterator

import "github.com/gobacktest/core/internal/linebuffer"

// Expr models line arithmetic (close - open, sma > price, ...) as an
// explicit tree rather than through operator overloading: indicator
// definitions build a tree and hand it to Eval (per-bar) or Fill
// (vectorized); strategy bodies instead call EagerCompare, which
// evaluates immediately against the current bar and returns a plain
// bool for use in an ordinary if-statement.
type Expr interface {
	eval(ago int) float64
}

// BinOp is the set of binary operators an expression tree node can apply.
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Gt
	Lt
	Ge
	Le
	Eq
)

// UnOp is the set of unary operators an expression tree node can apply.
type UnOp int

const (
	Neg UnOp = iota
	Abs
)

// Const is a fixed scalar, the tree form of a raw numeric argument passed
// where a line was expected.
type Const float64

func (c Const) eval(int) float64 { return float64(c) }

// LineRef reads a LineBuffer at a fixed ago offset from the offset passed
// to eval — i.e. LineRef{Line: l, Ago: 1} evaluated at ago=0 reads l[1].
type LineRef struct {
	Line *linebuffer.Buffer
	Ago  int
}

func (r LineRef) eval(ago int) float64 { return r.Line.Get(r.Ago + ago) }

// Delay wraps any Expr and shifts it further into the past by N bars —
// the tree form of the source's LineDelay (`line(-n)` / `line(ago=n)`).
type Delay struct {
	Inner Expr
	N     int
}

func (d Delay) eval(ago int) float64 { return d.Inner.eval(ago + d.N) }

// Binary applies Op to two operand subtrees.
type Binary struct {
	Op   BinOp
	L, R Expr
}

func (b Binary) eval(ago int) float64 {
	return applyBin(b.Op, b.L.eval(ago), b.R.eval(ago))
}

// Unary applies Op to a single operand subtree.
type Unary struct {
	Op UnOp
	A  Expr
}

func (u Unary) eval(ago int) float64 {
	return applyUn(u.Op, u.A.eval(ago))
}

func applyBin(op BinOp, l, r float64) float64 {
	switch op {
	case Add:
		return l + r
	case Sub:
		return l - r
	case Mul:
		return l * r
	case Div:
		if r == 0 {
			return linebuffer.NaN
		}
		return l / r
	case Gt:
		return boolf(l > r)
	case Lt:
		return boolf(l < r)
	case Ge:
		return boolf(l >= r)
	case Le:
		return boolf(l <= r)
	case Eq:
		return boolf(l == r)
	default:
		return linebuffer.NaN
	}
}

func applyUn(op UnOp, a float64) float64 {
	switch op {
	case Neg:
		return -a
	case Abs:
		if a < 0 {
			return -a
		}
		return a
	default:
		return linebuffer.NaN
	}
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Eval evaluates the tree once, for per-bar ("next") mode, at the given
// ago offset (normally 0, "now").
func Eval(e Expr, ago int) float64 { return e.eval(ago) }

// Fill evaluates the tree across [start, end) directly into out, for
// vectorized ("once") mode, assuming out's cursor sits at home (idx=-1) so
// absolute position i is addressed as ago = out.Idx() - i, the same
// offset Get/Set resolve back to i regardless of where the cursor sits.
func Fill(e Expr, out *linebuffer.Buffer, start, end int) {
	base := out.Idx()
	for i := start; i < end; i++ {
		ago := base - i
		out.Set(ago, e.eval(ago))
	}
}

// EagerCompare evaluates a comparison immediately against the current bar
// (ago=0) and returns a bool, for use inside strategy bodies where
// `if sma[0] > price[0]` must short-circuit to an immediate decision
// rather than build a new line.
func EagerCompare(op BinOp, l, r Expr) bool {
	return applyBin(op, l.eval(0), r.eval(0)) != 0
}
