// Package linebuffer implements the append-only columnar time-series
// storage that every indicator, observer, and strategy line is built on.
//
// A LineBuffer holds a backing slice of float64 values plus a movable
// logical cursor. Index 0 is always "now"; positive indices look into
// the past, negative indices into a lookahead region built with
// Extend. Values are never rewritten once written, except through an
// explicit Backward+overwrite, because indicators rely on that to stay
// correct across repeated reads.
package linebuffer

import (
	"math"
	"time"
)

// NaN is the sentinel for "no value yet".
var NaN = math.NaN()

// Mode selects how the backing slice grows.
type Mode int

const (
	// Unbounded never evicts; the backing slice grows for the life of the run.
	Unbounded Mode = iota
	// Bounded keeps only the last Capacity values, evicting the oldest on Forward.
	Bounded
)

// Buffer is a single named column with a logical cursor.
//
// Bindings are write-through links to other Buffers: every Set also
// writes the same value, at the same ago, to every bound buffer. A
// binding does not own, and is not owned by, the buffer that declares
// it — the caller is responsible for keeping both alive for as long as
// the binding exists.
type Buffer struct {
	name string

	mode     Mode
	capacity int // Bounded mode only: minperiod; the ring holds capacity + extra slots
	extra    int

	array     []float64
	idx       int // logical cursor; -1 means "nothing written yet"
	lencount  int
	extension int // slots appended past idx via Extend, not yet reachable by forward cursor motion

	minperiod int
	bindings  []*Buffer

	tz *TZ // optional; only meaningful for datetime lines
}

// TZ is a minimal timezone handle attached to datetime lines.
type TZ struct {
	Name string
	Loc  *time.Location
}

// New creates an Unbounded buffer with minimum period 1 (the backtrader
// default: every line can produce a value from its very first bar unless
// something raises it).
func New(name string) *Buffer {
	b := &Buffer{name: name, minperiod: 1}
	b.Reset()
	return b
}

// Name returns the line's alias.
func (b *Buffer) Name() string { return b.name }

// Len returns the number of bars produced since the last Reset/Home.
func (b *Buffer) Len() int { return b.lencount }

// BufLen returns how much of the backing slice actually holds data,
// excluding the lookahead region built by Extend.
func (b *Buffer) BufLen() int { return len(b.array) - b.extension }

// Idx returns the current logical cursor.
func (b *Buffer) Idx() int { return b.idx }

// MinPeriod returns the smallest bar index at which this line can emit a
// meaningful value.
func (b *Buffer) MinPeriod() int { return b.minperiod }

// SetMinPeriod overwrites the minimum period unconditionally.
func (b *Buffer) SetMinPeriod(n int) { b.minperiod = n }

// Reset clears the backing storage and counters entirely.
func (b *Buffer) Reset() {
	if b.mode == Bounded {
		cap := b.capacity + b.extra
		b.array = make([]float64, 0, cap)
	} else {
		b.array = nil
	}
	b.lencount = 0
	b.idx = -1
	b.extension = 0
}

// Home rewinds the cursor and length to the start without touching the
// backing slice; BufLen is unaffected.
func (b *Buffer) Home() {
	b.idx = -1
	b.lencount = 0
}

// Qbuffer switches the buffer into Bounded (ring) mode. Capacity is the
// line's current minimum period plus extraSize — extraSize covers the one
// extra slot a resampler/replayer needs to hold its in-progress bar.
func (b *Buffer) Qbuffer(extraSize int) {
	b.mode = Bounded
	b.capacity = b.minperiod
	b.extra = extraSize
	b.Reset()
}

// lenmark is the index at which a Bounded buffer stops advancing idx and
// starts only rotating values (backtrader: maxlen - (not extrasize)).
func (b *Buffer) lenmark() int {
	if b.extra == 0 {
		return b.capacity - 1
	}
	return b.capacity
}

// MinBuffer grows a Bounded buffer's capacity if a consumer needs a larger
// window than previously reserved. No-op in Unbounded mode.
func (b *Buffer) MinBuffer(size int) {
	if b.mode != Bounded || b.capacity >= size {
		return
	}
	b.capacity = size
	b.Reset()
}

// SetIdx moves the logical cursor directly. In Bounded mode, once the
// buffer has filled to lenmark, further advances are refused (idx stays
// pinned and subsequent Forward calls only rotate values) unless force is
// set — replayers use force to keep building an in-progress bar.
func (b *Buffer) SetIdx(idx int, force bool) {
	if b.mode == Bounded {
		if force || b.idx < b.lenmark() {
			b.idx = idx
		}
		return
	}
	b.idx = idx
}

// Get returns the value at the given ago offset from the current cursor.
// ago=0 is "now", positive ago looks into the past, negative ago reads the
// Extend lookahead region.
func (b *Buffer) Get(ago int) float64 {
	i := b.idx - ago
	if i < 0 || i >= len(b.array) {
		return NaN
	}
	return b.array[i]
}

// Set writes a value at ago and propagates it to every bound buffer.
func (b *Buffer) Set(ago int, v float64) {
	i := b.idx - ago
	if i >= 0 && i < len(b.array) {
		b.array[i] = v
	}
	for _, bound := range b.bindings {
		bound.Set(ago, v)
	}
}

// GetSlice returns size values ending at ago (oldest first).
func (b *Buffer) GetSlice(ago, size int) []float64 {
	end := b.idx - ago + 1
	start := end - size
	return b.sliceAbsolute(start, end)
}

// GetZero returns a slice relative to the buffer's true zero (index 0 of
// the backing slice), ignoring the logical cursor — used by writers that
// need the whole history, not the "now"-relative view.
func (b *Buffer) GetZero(idx, size int) []float64 {
	return b.sliceAbsolute(idx, idx+size)
}

func (b *Buffer) sliceAbsolute(start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(b.array) {
		end = len(b.array)
	}
	if end < start {
		end = start
	}
	out := make([]float64, end-start)
	copy(out, b.array[start:end])
	return out
}

// Forward appends size slots filled with v, advancing idx and length. In
// Bounded mode the oldest slot is evicted once the ring is full.
func (b *Buffer) Forward(v float64, size int) {
	if size <= 0 {
		size = 1
	}
	// Bounded mode pins idx once the ring has filled past lenmark, so a
	// Forward after capacity only rotates values and does not keep
	// advancing the logical cursor.
	b.SetIdx(b.idx+size, false)
	b.lencount += size

	for i := 0; i < size; i++ {
		if b.mode == Bounded && len(b.array) >= b.capacity+b.extra {
			copy(b.array, b.array[1:])
			b.array[len(b.array)-1] = v
		} else {
			b.array = append(b.array, v)
		}
	}
}

// Backward pops size slots and rewinds idx/length. In Bounded mode it
// refuses to retreat past the first real slot unless force is set.
func (b *Buffer) Backward(size int, force bool) {
	if size <= 0 {
		size = 1
	}
	b.SetIdx(b.idx-size, force)
	b.lencount -= size
	for i := 0; i < size && len(b.array) > 0; i++ {
		b.array = b.array[:len(b.array)-1]
	}
}

// Rewind moves idx and length backward without touching the backing slice.
func (b *Buffer) Rewind(size int) {
	if size <= 0 {
		size = 1
	}
	b.idx -= size
	b.lencount -= size
}

// Advance moves idx and length forward without touching the backing slice.
func (b *Buffer) Advance(size int) {
	if size <= 0 {
		size = 1
	}
	b.idx += size
	b.lencount += size
}

// Extend grows the backing slice beyond idx, for lookahead writes, without
// moving the cursor.
func (b *Buffer) Extend(v float64, size int) {
	b.extension += size
	for i := 0; i < size; i++ {
		b.array = append(b.array, v)
	}
}

// AddBinding registers other as a write-through target: every future Set
// on b is mirrored onto other. other's minimum period is raised to at
// least b's.
func (b *Buffer) AddBinding(other *Buffer) {
	b.bindings = append(b.bindings, other)
	other.UpdateMinPeriod(b.minperiod)
}

// Bindings exposes the registered write-through targets, read-only.
func (b *Buffer) Bindings() []*Buffer { return b.bindings }

// OnceBinding bulk-copies the full produced range into every bound buffer,
// used at the end of vectorized ("once") execution instead of per-Set
// propagation.
func (b *Buffer) OnceBinding() {
	blen := b.BufLen()
	for _, bound := range b.bindings {
		if cap(bound.array) < blen {
			grown := make([]float64, blen)
			copy(grown, bound.array)
			bound.array = grown
		} else if len(bound.array) < blen {
			bound.array = bound.array[:blen]
		}
		copy(bound.array[:blen], b.array[:blen])
	}
}

// UpdateMinPeriod raises the minimum period to at least n.
func (b *Buffer) UpdateMinPeriod(n int) {
	if n > b.minperiod {
		b.minperiod = n
	}
}

// AddMinPeriod raises the minimum period using the overlapping-period
// convention: an input of minimum period m combined with a window of
// size n needs m + n - 1 bars of history, so this raises the period by
// n - 1, not n.
func (b *Buffer) AddMinPeriod(n int) {
	b.minperiod += n - 1
}

// IncMinPeriod raises the minimum period unconditionally by n, with no
// overlap adjustment — used when a dependency is consumed whole rather
// than through a sliding window.
func (b *Buffer) IncMinPeriod(n int) {
	b.minperiod += n
}

// SetTZ attaches a timezone handle. Only datetime lines use this; it is a
// no-op marker for everything else.
func (b *Buffer) SetTZ(tz *TZ) { b.tz = tz }

// TZ returns the attached timezone handle, or nil.
func (b *Buffer) TZ() *TZ { return b.tz }
