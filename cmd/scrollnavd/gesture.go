package main

// Intent is the discrete outcome of a gesture.
type Intent int

const (
	IntentNone Intent = iota
	IntentAdvance
	IntentRetreat
)

func (i Intent) String() string {
	switch i {
	case IntentAdvance:
		return "advance"
	case IntentRetreat:
		return "retreat"
	default:
		return "none"
	}
}

// Accumulator turns a stream of signed deltas into discrete intents.
//
// Positive deltas advance (scroll down), negative deltas retreat.
// Once |sum| exceeds Threshold the matching intent is emitted and the sum is
// reset, so many small deltas accumulate while a single large one fires at once.
//
// Accumulator is a value type so it can live inside reducer-owned state.
type Accumulator struct {
	Threshold float64

	// ResetOnReversal discards the running sum when a delta arrives with the
	// opposite sign (touch). The wheel variant keeps summing and relies on the
	// reducer to reset it.
	ResetOnReversal bool

	value float64
}

// NewWheelAccumulator returns the wheel variant.
func NewWheelAccumulator(threshold float64) Accumulator {
	if threshold <= 0 {
		threshold = defaultWheelThreshold
	}
	return Accumulator{Threshold: threshold}
}

// NewTouchAccumulator returns the touch variant.
func NewTouchAccumulator(threshold float64) Accumulator {
	if threshold <= 0 {
		threshold = defaultTouchThreshold
	}
	return Accumulator{Threshold: threshold, ResetOnReversal: true}
}

// Accumulate adds delta and returns the intent it produced, if any.
func (a *Accumulator) Accumulate(delta float64) Intent {
	if a.ResetOnReversal && a.value != 0 && (delta > 0) != (a.value > 0) {
		a.value = delta
	} else {
		a.value += delta
	}

	switch {
	case a.value > a.Threshold:
		a.value = 0
		return IntentAdvance
	case a.value < -a.Threshold:
		a.value = 0
		return IntentRetreat
	default:
		return IntentNone
	}
}

// Value returns the running sum.
func (a *Accumulator) Value() float64 { return a.value }

// Reset zeroes the running sum.
func (a *Accumulator) Reset() { a.value = 0 }

// TouchTracker remembers the last touch position so moves can be turned into
// deltas for the touch accumulator.
type TouchTracker struct {
	Acc   Accumulator
	LastY float64
}

// Start begins a new touch gesture.
func (t *TouchTracker) Start(y float64) {
	t.LastY = y
	t.Acc.Reset()
}

// Delta returns the movement since the last recorded position without
// recording y. Positive means the finger moved up (page scrolls down).
func (t *TouchTracker) Delta(y float64) float64 {
	return t.LastY - y
}
