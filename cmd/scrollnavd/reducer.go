package main

import "time"

// This file implements the navigation reducer:
//
//   - Events: page input, layout reports, ticks, sequence completions
//   - Commands: side effects (run a choreography, publish a snapshot, persist settings)
//   - Broadcasts: messages for the page renderer
//   - Reduce(): computes next state + commands + broadcasts, without performing I/O
//
// The daemon loop owns NavState, executes Commands and feeds observations back
// as Events.

// NavConfig is the reducer's tuning.
type NavConfig struct {
	WheelThreshold float64
	TouchThreshold float64
	SyncDebounce   time.Duration
	ContentGate    ContentGateConfig
	Choreography   ChoreographyConfig
}

// DefaultNavConfig returns the stock tuning.
func DefaultNavConfig() NavConfig {
	return NavConfig{
		WheelThreshold: defaultWheelThreshold,
		TouchThreshold: defaultTouchThreshold,
		SyncDebounce:   defaultSyncDebounce,
		ContentGate:    defaultContentGateConfig(),
		Choreography:   defaultChoreographyConfig(),
	}
}

// ReduceResult is the output of Reduce().
type ReduceResult struct {
	State      *NavState
	Commands   []Command
	Broadcasts []Broadcast

	// PreventDefault is true when the input event was consumed and the page
	// must suppress its native scrolling.
	PreventDefault bool

	// Err reports a rejected event (a layout report missing a section).
	Err error
}

// reduction accumulates the outputs of a single Reduce call.
type reduction struct {
	s   *NavState
	cfg NavConfig
	now time.Time

	cmds    []Command
	bcasts  []Broadcast
	prevent bool
	err     error
}

func (r *reduction) broadcast(b ...Broadcast) { r.bcasts = append(r.bcasts, b...) }
func (r *reduction) command(c Command)        { r.cmds = append(r.cmds, c) }

// Reduce is the pure reducer:
//
// Rules:
// - Must not perform I/O
// - Must not block
// - Must not read the wall clock; time arrives with the event
func Reduce(s *NavState, e Event, cfg NavConfig) ReduceResult {
	if s == nil {
		s = NewNavState(cfg)
	}
	if s.Effects == nil {
		s.Effects = EffectSet{}
	}

	r := &reduction{s: s, cfg: cfg}
	if te, ok := e.(TimedEvent); ok {
		e = te.Event
		r.now = te.At
	}

	switch ev := e.(type) {
	case Tick:
		r.now = ev.Now
		r.flushSync()

	case WheelInput:
		r.wheel(ev)

	case TouchStart:
		s.Touch.Start(ev.Y)

	case TouchMove:
		r.touchMove(ev)

	case ScrollReported:
		r.scroll(ev.ScrollY)

	case LayoutReported:
		r.layout(ev)

	case AdvanceRequest:
		r.direct(IntentAdvance)

	case RetreatRequest:
		r.direct(IntentRetreat)

	case ModalChanged:
		s.ModalOpen = ev.Open
		if ev.Open {
			s.Wheel.Reset()
			s.Touch.Acc.Reset()
		}

	case SettingsChanged:
		wasOn := s.Settings.PreventIntroReturn
		s.Settings.PreventIntroReturn = ev.PreventIntroReturn
		if ev.Persist {
			r.command(CmdPersistSettings{Settings: s.Settings})
		}
		if !wasOn && ev.PreventIntroReturn && s.LayoutKnown && !s.Transitioning {
			r.clampIntroReturn()
		}

	case SequenceCompleted:
		// Stale completions (a sequence that no longer owns the mutex) are ignored.
		if s.Transitioning && ev.ID == s.SequenceID {
			s.Transitioning = false
			r.broadcast(BroadcastTransitionDone{ID: ev.ID, View: s.CurrentView})
		}

	case RequestStateSnapshot:
		r.command(CmdPublishStateSnapshot{Reply: ev.Reply, Snapshot: s.Snapshot()})

	case EffectFailed:
		// No retries and no partial-transition recovery, but a sequence that never
		// started must not hold the mutex forever.
		if c, ok := ev.Command.(CmdRunSequence); ok && s.Transitioning && c.Sequence.ID == s.SequenceID {
			s.Transitioning = false
		}

	default:
		// Unknown event type: no-op.
	}

	if r.prevent {
		r.broadcast(BroadcastInputOutcome{PreventDefault: true})
	}

	return ReduceResult{
		State:          s,
		Commands:       r.cmds,
		Broadcasts:     r.bcasts,
		PreventDefault: r.prevent,
		Err:            r.err,
	}
}

// physicalBlock reports whether an upward gesture must be swallowed because
// the user opted out of returning to Intro and is sitting at the top of Main.
func (r *reduction) physicalBlock(delta float64) bool {
	s := r.s
	return s.Settings.PreventIntroReturn &&
		s.CurrentView == ViewMain &&
		delta < 0 &&
		s.Layout.MainAtTop()
}

func (r *reduction) wheel(ev WheelInput) {
	s := r.s
	if s.Transitioning {
		r.prevent = true
		return
	}
	if s.ModalOpen || ev.Nested || !s.LayoutKnown {
		return
	}
	if r.physicalBlock(ev.DeltaY) {
		r.prevent = true
		return
	}

	v := s.CurrentView
	l := &s.Layout

	switch {
	case ev.DeltaY > 0:
		if !CanAdvance(v, l) {
			s.Wheel.Reset()
			if g := s.gate(v); g != nil {
				g.ObserveHidden(ev.DeltaY)
			}
			return
		}
		if g := s.gate(v); g != nil {
			sec := l.Section(v)
			res := g.Check(ContentGateInput{
				Visible:           sec.LastContentVisible,
				Now:               r.now,
				ScrollY:           l.ScrollY,
				ViewportHeight:    l.ViewportHeight,
				LastContentBottom: sec.LastContentBottom,
				HasLastContent:    sec.HasLastContent,
			}, r.cfg.ContentGate)
			if !res.Allow {
				s.Wheel.Reset()
				r.prevent = r.prevent || res.PreventDefault
				if res.ClampY != nil {
					r.broadcast(BroadcastSetScroll{Y: *res.ClampY})
				}
				return
			}
		}
		if s.Wheel.Accumulate(ev.DeltaY) == IntentAdvance {
			if next, ok := v.Next(); ok {
				r.transition(next)
			}
		}

	case ev.DeltaY < 0:
		if !CanRetreat(v, l) || (v == ViewMain && s.Settings.PreventIntroReturn) {
			s.Wheel.Reset()
			return
		}
		if s.Wheel.Accumulate(ev.DeltaY) == IntentRetreat {
			if prev, ok := v.Prev(); ok {
				r.transition(prev)
			}
		}

	default:
		s.Wheel.Reset()
	}
}

// touchMove drives the Intro/Main pair only. Past Main, touch scrolling is
// native and scroll sync reconciles the view.
func (r *reduction) touchMove(ev TouchMove) {
	s := r.s
	if s.Transitioning {
		r.prevent = ev.Cancelable
		return
	}
	if s.ModalOpen || !s.LayoutKnown {
		return
	}

	delta := s.Touch.Delta(ev.Y)
	if r.physicalBlock(delta) {
		r.prevent = ev.Cancelable
		s.Touch.Acc.Reset()
		return
	}
	s.Touch.LastY = ev.Y

	intent := s.Touch.Acc.Accumulate(delta)
	switch {
	case s.CurrentView == ViewIntro && intent == IntentAdvance:
		r.transition(ViewMain)

	case s.CurrentView == ViewMain && intent == IntentRetreat:
		if s.Settings.PreventIntroReturn {
			return
		}
		if CanRetreat(ViewMain, &s.Layout) && s.Layout.MainAtTop() {
			r.transition(ViewIntro)
		}
	}
}

// direct handles explicit advance/retreat requests. They skip accumulation but
// honor the mutex, the modal flag, the gates, a running cooldown lock and the
// prevent-intro-return setting.
func (r *reduction) direct(intent Intent) {
	s := r.s
	if s.Transitioning || s.ModalOpen || !s.LayoutKnown {
		return
	}
	v := s.CurrentView
	switch intent {
	case IntentAdvance:
		next, ok := v.Next()
		if !ok || !CanAdvance(v, &s.Layout) {
			return
		}
		if g := s.gate(v); g != nil && g.Active(r.now) {
			s.Wheel.Reset()
			if res := g.Hold(r.now, r.cfg.ContentGate); res.ClampY != nil {
				r.broadcast(BroadcastSetScroll{Y: *res.ClampY})
			}
			return
		}
		r.transition(next)

	case IntentRetreat:
		prev, ok := v.Prev()
		if !ok || !CanRetreat(v, &s.Layout) {
			return
		}
		if v == ViewMain && s.Settings.PreventIntroReturn {
			return
		}
		r.transition(prev)
	}
}

// transition starts the choreography from CurrentView to the adjacent view to.
// CurrentView is committed immediately so input and scroll sync agree on the
// destination while the page is still animating.
func (r *reduction) transition(to View) {
	s := r.s
	from := s.CurrentView
	if next, _ := from.Next(); next != to {
		if prev, _ := from.Prev(); prev != to {
			return
		}
	}

	s.Transitioning = true
	s.SequenceID++
	s.SyncDue = time.Time{}
	s.Wheel.Reset()
	s.Touch.Acc.Reset()
	s.clearGates(from, to)

	l := &s.Layout
	chor := r.cfg.Choreography
	seq := Sequence{ID: s.SequenceID, From: from, To: to}

	switch {
	case from == ViewIntro && to == ViewMain:
		s.CurrentView = to
		r.broadcast(BroadcastViewChanged{From: from, To: to, Cause: "transition"})
		seq.Steps = SplitOpenSteps(l.OffsetOf(ViewMain), s.HintVisible, chor)

	case from == ViewMain && to == ViewIntro:
		s.CurrentView = to
		r.broadcast(BroadcastViewChanged{From: from, To: to, Cause: "transition"})
		seq.Steps = SplitCloseSteps(s.HintVisible, chor)

	default:
		for _, e := range s.Effects.Sorted() {
			r.broadcast(BroadcastEffect{Effect: e, Running: false})
		}
		s.CurrentView = to
		r.broadcast(
			BroadcastViewChanged{From: from, To: to, Cause: "transition"},
			BroadcastRenderState{State: ViewToRenderState(to)},
		)
		if to == ViewMain {
			r.broadcast(BroadcastResetNestedScroll{})
		}
		seq.Steps = AdjacentSteps(to, l.OffsetOf(to), s.HintVisible, chor)
	}

	s.Effects = NewEffectSet(EffectsForView(to)...)
	s.HintVisible = to.Interior()
	r.command(CmdRunSequence{Sequence: seq})
}

func (r *reduction) layout(ev LayoutReported) {
	l := ev.Layout()
	if err := l.Validate(); err != nil {
		r.err = err
		return
	}
	r.s.Layout = l
	r.s.LayoutKnown = true
	r.scroll(l.ScrollY)
}

// scroll records the page's scroll position, clamps it back to Main when the
// user opted out of returning to Intro, and arms the debounced sync.
func (r *reduction) scroll(y float64) {
	s := r.s
	if !s.LayoutKnown {
		return
	}
	s.Layout.ScrollY = y

	if s.Transitioning {
		return
	}

	if r.clampIntroReturn() {
		return
	}

	s.SyncDue = r.now.Add(r.cfg.SyncDebounce)
}

// clampIntroReturn holds the page on Main when prevent-intro-return is on and
// the scroll position has crept into Intro. It reports whether it clamped.
func (r *reduction) clampIntroReturn() bool {
	s := r.s
	if !s.Settings.PreventIntroReturn || s.CurrentView != ViewMain || s.Layout.ScrollY >= s.Layout.ViewportHeight {
		return false
	}
	s.SyncDue = time.Time{}
	r.broadcast(BroadcastSetScroll{Y: s.Layout.ViewportHeight})
	return true
}

// flushSync runs a due scroll sync: derive the view from the scroll position
// and reconcile without scrolling or choreography.
func (r *reduction) flushSync() {
	s := r.s
	if s.SyncDue.IsZero() || r.now.Before(s.SyncDue) {
		return
	}
	s.SyncDue = time.Time{}
	if s.Transitioning || !s.LayoutKnown {
		return
	}

	target := ViewAtScroll(s.Layout.ScrollY, &s.Layout)
	if target == ViewIntro && s.CurrentView == ViewMain && s.Settings.PreventIntroReturn {
		target = ViewMain
	}
	if target == s.CurrentView {
		return
	}

	from := s.CurrentView
	s.CurrentView = target
	s.Wheel.Reset()
	s.clearGates(from, target)

	r.broadcast(
		BroadcastViewChanged{From: from, To: target, Cause: "sync"},
		BroadcastRenderState{State: ViewToRenderState(target)},
	)

	want := EffectsForView(target)
	stop, start := DiffEffects(s.Effects, want)
	for _, e := range stop {
		r.broadcast(BroadcastEffect{Effect: e, Running: false})
	}
	for _, e := range start {
		r.broadcast(BroadcastEffect{Effect: e, Running: true})
	}
	s.Effects = NewEffectSet(want...)
}
