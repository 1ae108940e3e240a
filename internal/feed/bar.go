package feed

// CurrentValues returns the seven OHLCV fields of the bar currently at
// ago=0, in schema order. Filters use this to read the bar they are about
// to aggregate or pass through.
func (f *Feed) CurrentValues() [7]float64 {
	var vals [7]float64
	for i, l := range f.Lines() {
		vals[i] = l.Get(0)
	}
	return vals
}

// SetCurrentValues overwrites the bar at ago=0 with vals, in schema
// order — how a resampler replaces the just-loaded sub-bar with the
// finished aggregate before letting it propagate.
func (f *Feed) SetCurrentValues(vals [7]float64) {
	for i, l := range f.Lines() {
		l.Set(0, vals[i])
	}
}

// Stash pushes vals onto barstash: the next Load call will pop it back
// into the current slot before asking the source for anything new. This
// is how a replayer re-delivers the still-growing in-progress bar.
func (f *Feed) Stash(vals [7]float64) { f.addToStack(vals, true) }
