package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var t0 = time.Unix(10_000, 0).UTC()

func layoutEvent(l Layout) LayoutReported {
	ev := LayoutReported{
		ViewportHeight: l.ViewportHeight,
		ScrollY:        l.ScrollY,
		Sections:       map[View]SectionMetrics{},
	}
	for _, v := range AllViews() {
		if l.Sections[v].Present {
			ev.Sections[v] = l.Sections[v]
		}
	}
	return ev
}

// newReadyState returns a state with a known layout, sitting on view at scrollY.
func newReadyState(t *testing.T, view View, scrollY float64) (*NavState, NavConfig) {
	t.Helper()
	cfg := DefaultNavConfig()
	s := NewNavState(cfg)

	l := testLayout()
	l.ScrollY = scrollY
	rr := Reduce(s, TimedEvent{Event: layoutEvent(l), At: t0}, cfg)
	require.NoError(t, rr.Err)
	require.True(t, s.LayoutKnown)

	s.CurrentView = view
	s.Effects = NewEffectSet(EffectsForView(view)...)
	s.HintVisible = view.Interior()
	s.SyncDue = time.Time{}
	return s, cfg
}

func at(ev Event, ts time.Time) Event { return TimedEvent{Event: ev, At: ts} }

// runSequences returns the sequences started by rr.
func runSequences(rr ReduceResult) []Sequence {
	var out []Sequence
	for _, c := range rr.Commands {
		if rs, ok := c.(CmdRunSequence); ok {
			out = append(out, rs.Sequence)
		}
	}
	return out
}

// completeTransition feeds the in-flight sequence's completion.
func completeTransition(t *testing.T, s *NavState, cfg NavConfig) {
	t.Helper()
	require.True(t, s.Transitioning, "no transition in flight")
	Reduce(s, SequenceCompleted{ID: s.SequenceID}, cfg)
	require.False(t, s.Transitioning)
}

func hasBroadcast[T Broadcast](bs []Broadcast) (T, bool) {
	for _, b := range bs {
		if v, ok := b.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestReduce_MutexExcludesConcurrentTransitions(t *testing.T) {
	s, cfg := newReadyState(t, ViewIntro, 0)

	rr := Reduce(s, at(WheelInput{DeltaY: 40}, t0), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewIntro, seqs[0].From)
	require.Equal(t, ViewMain, seqs[0].To)
	require.True(t, s.Transitioning)
	require.Equal(t, ViewMain, s.CurrentView)

	id := s.SequenceID
	for i := 0; i < 5; i++ {
		rr = Reduce(s, at(WheelInput{DeltaY: 120}, t0.Add(time.Duration(i)*10*time.Millisecond)), cfg)
		require.Empty(t, rr.Commands)
		require.True(t, rr.PreventDefault, "wheel during a transition must be swallowed")
		_, ok := hasBroadcast[BroadcastInputOutcome](rr.Broadcasts)
		require.True(t, ok)

		rr = Reduce(s, AdvanceRequest{}, cfg)
		require.Empty(t, rr.Commands)
		rr = Reduce(s, at(WheelInput{DeltaY: -120}, t0), cfg)
		require.Empty(t, rr.Commands)
	}
	require.Equal(t, ViewMain, s.CurrentView)
	require.Equal(t, id, s.SequenceID)

	rr = Reduce(s, SequenceCompleted{ID: id}, cfg)
	require.False(t, s.Transitioning)
	done, ok := hasBroadcast[BroadcastTransitionDone](rr.Broadcasts)
	require.True(t, ok)
	require.Equal(t, ViewMain, done.View)

	s.Layout.ScrollY = 1000
	rr = Reduce(s, at(WheelInput{DeltaY: 40}, t0.Add(time.Second)), cfg)
	seqs = runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewAbout, seqs[0].To)
}

func TestReduce_StaleCompletionIgnored(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)

	Reduce(s, AdvanceRequest{}, cfg)
	require.True(t, s.Transitioning)

	rr := Reduce(s, SequenceCompleted{ID: s.SequenceID - 1}, cfg)
	require.True(t, s.Transitioning)
	require.Empty(t, rr.Broadcasts)
}

func TestReduce_FailedSequenceStartReleasesMutex(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)

	rr := Reduce(s, AdvanceRequest{}, cfg)
	require.Len(t, rr.Commands, 1)

	Reduce(s, EffectFailed{Command: rr.Commands[0], Err: errNoSequencer{}}, cfg)
	require.False(t, s.Transitioning)
}

func TestReduce_OnlyAdjacentTransitions(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)
	s.Layout.Sections[ViewAbout].LastContentVisible = true
	s.Layout.Sections[ViewReality].LastContentVisible = true

	var path []View
	now := t0
	for i := 0; i < 40 && s.CurrentView != ViewTestament; i++ {
		now = now.Add(50 * time.Millisecond)

		var ev Event = WheelInput{DeltaY: 500}
		if i%3 == 0 {
			ev = AdvanceRequest{}
		}
		rr := Reduce(s, at(ev, now), cfg)
		for _, seq := range runSequences(rr) {
			next, ok := seq.From.Next()
			require.True(t, ok)
			require.Equal(t, next, seq.To, "transition %s->%s skipped a view", seq.From, seq.To)
			path = append(path, seq.To)
			completeTransition(t, s, cfg)
		}
	}
	require.Equal(t, []View{ViewAbout, ViewReality, ViewTestament}, path)

	// The transition primitive itself refuses non-neighbours.
	s2, _ := newReadyState(t, ViewMain, 1000)
	r := &reduction{s: s2, cfg: cfg, now: t0}
	r.transition(ViewReality)
	require.Empty(t, r.cmds)
	require.False(t, s2.Transitioning)
	require.Equal(t, ViewMain, s2.CurrentView)
}

func TestReduce_ContentGateFirstCheckVisible(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2800)
	s.Layout.Sections[ViewAbout].LastContentVisible = true

	rr := Reduce(s, at(WheelInput{DeltaY: 20}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.False(t, rr.PreventDefault)

	g := s.Gates[ViewAbout]
	require.NotNil(t, g.LastVisible)
	require.True(t, *g.LastVisible)
	require.False(t, g.Active(t0))

	rr = Reduce(s, at(WheelInput{DeltaY: 20}, t0.Add(16*time.Millisecond)), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewReality, seqs[0].To)
}

func TestReduce_ContentGateRealScrollLock(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2000)

	// Content still hidden: the gate denies and the travel is recorded.
	rr := Reduce(s, at(WheelInput{DeltaY: 20}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.False(t, rr.PreventDefault)
	require.Equal(t, 20.0, s.Gates[ViewAbout].Travel)

	// The page scrolled and now reports the last paragraph on screen.
	l := s.Layout
	l.ScrollY = 2600
	l.Sections[ViewAbout].LastContentVisible = true
	l.Sections[ViewAbout].LastContentBottom = 960
	l.Sections[ViewAbout].HasLastContent = true
	rr = Reduce(s, at(layoutEvent(l), t0.Add(40*time.Millisecond)), cfg)
	require.NoError(t, rr.Err)

	lockAt := t0.Add(50 * time.Millisecond)
	rr = Reduce(s, at(WheelInput{DeltaY: 20}, lockAt), cfg)
	require.Empty(t, rr.Commands)
	require.True(t, rr.PreventDefault)
	require.NotNil(t, s.Gates[ViewAbout].LockedScrollY)
	require.Equal(t, 2600+960-1000+20.0, *s.Gates[ViewAbout].LockedScrollY)

	// Keep scrolling for ~1s: every sample is denied and clamped.
	last := lockAt
	for i := 1; i <= 9; i++ {
		last = lockAt.Add(time.Duration(i) * 100 * time.Millisecond)
		rr = Reduce(s, at(WheelInput{DeltaY: 80}, last), cfg)
		require.Empty(t, rr.Commands, "sample %d escaped the lock", i)
		require.True(t, rr.PreventDefault)
		clamp, ok := hasBroadcast[BroadcastSetScroll](rr.Broadcasts)
		require.True(t, ok)
		require.Equal(t, 2580.0, clamp.Y)
	}
	require.Equal(t, ViewAbout, s.CurrentView)

	// One quiet cooldown later the next gesture advances.
	rr = Reduce(s, at(WheelInput{DeltaY: 40}, last.Add(cfg.ContentGate.Cooldown)), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewReality, seqs[0].To)
}

// engageAboutLock reveals About's last content after real wheel travel and
// returns the time the cooldown lock engaged at offset 2580.
func engageAboutLock(t *testing.T, s *NavState, cfg NavConfig) time.Time {
	t.Helper()
	Reduce(s, at(WheelInput{DeltaY: 20}, t0), cfg)

	l := s.Layout
	l.ScrollY = 2600
	l.Sections[ViewAbout].LastContentVisible = true
	l.Sections[ViewAbout].LastContentBottom = 960
	l.Sections[ViewAbout].HasLastContent = true
	require.NoError(t, Reduce(s, at(layoutEvent(l), t0.Add(40*time.Millisecond)), cfg).Err)

	lockAt := t0.Add(50 * time.Millisecond)
	rr := Reduce(s, at(WheelInput{DeltaY: 20}, lockAt), cfg)
	require.Empty(t, rr.Commands)
	require.True(t, s.Gates[ViewAbout].Active(lockAt))
	return lockAt
}

func TestReduce_AdvanceRequestHonorsCooldownLock(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2000)
	lockAt := engageAboutLock(t, s, cfg)

	held := lockAt.Add(50 * time.Millisecond)
	rr := Reduce(s, at(AdvanceRequest{}, held), cfg)
	require.Empty(t, runSequences(rr))
	require.Equal(t, ViewAbout, s.CurrentView)
	require.False(t, s.Transitioning)
	require.Equal(t, []Broadcast{BroadcastSetScroll{Y: 2580}}, rr.Broadcasts)

	// The key press re-arms the window like a wheel sample would.
	require.Equal(t, held.Add(cfg.ContentGate.Cooldown), s.Gates[ViewAbout].CooldownEndsAt)

	rr = Reduce(s, at(AdvanceRequest{}, held.Add(cfg.ContentGate.Cooldown)), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewReality, seqs[0].To)
}

func TestReduce_GateStateClearedOnNavigation(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2800)
	s.Layout.Sections[ViewAbout].LastContentVisible = true

	rr := Reduce(s, AdvanceRequest{}, cfg)
	require.Len(t, runSequences(rr), 1)
	Reduce(s, at(ScrollReported{ScrollY: 3800}, t0), cfg)
	completeTransition(t, s, cfg)
	require.Equal(t, ViewReality, s.CurrentView)

	// Leave some state behind on About to prove the retreat clears it.
	locked := 2500.0
	hidden := false
	s.Gates[ViewAbout] = ContentGateState{LastVisible: &hidden, Travel: 50, LockedScrollY: &locked, CooldownEndsAt: t0.Add(time.Hour)}

	rr = Reduce(s, at(WheelInput{DeltaY: -40}, t0.Add(time.Second)), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewAbout, seqs[0].To)
	require.Equal(t, ContentGateState{}, s.Gates[ViewAbout])
	require.Equal(t, ContentGateState{}, s.Gates[ViewReality])
	completeTransition(t, s, cfg)

	// The next forward gesture runs the first-check path, not the cooldown.
	s.Layout.ScrollY = 2800
	rr = Reduce(s, at(WheelInput{DeltaY: 20}, t0.Add(2*time.Second)), cfg)
	require.False(t, rr.PreventDefault)
	require.True(t, *s.Gates[ViewAbout].LastVisible)
	require.Nil(t, s.Gates[ViewAbout].LockedScrollY)
}

func TestReduce_ScrollSyncReconcilesWithoutScrolling(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2000)

	rr := Reduce(s, at(ScrollReported{ScrollY: 4000}, t0), cfg)
	require.Empty(t, rr.Broadcasts)
	require.Equal(t, t0.Add(cfg.SyncDebounce), s.SyncDue)

	rr = Reduce(s, Tick{Now: t0.Add(100 * time.Millisecond)}, cfg)
	require.Empty(t, rr.Broadcasts)
	require.Equal(t, ViewAbout, s.CurrentView)

	rr = Reduce(s, Tick{Now: t0.Add(cfg.SyncDebounce)}, cfg)
	require.Equal(t, ViewReality, s.CurrentView)
	require.False(t, s.Transitioning)
	require.Empty(t, rr.Commands)

	vc, ok := hasBroadcast[BroadcastViewChanged](rr.Broadcasts)
	require.True(t, ok)
	require.Equal(t, BroadcastViewChanged{From: ViewAbout, To: ViewReality, Cause: "sync"}, vc)

	rs, ok := hasBroadcast[BroadcastRenderState](rr.Broadcasts)
	require.True(t, ok)
	require.Equal(t, "view-reality", rs.State.ViewClass)

	_, scrolled := hasBroadcast[BroadcastScrollTo](rr.Broadcasts)
	require.False(t, scrolled, "sync must never smooth-scroll")

	require.Contains(t, rr.Broadcasts, Broadcast(BroadcastEffect{Effect: EffectFallingParticles, Running: false}))
	require.Contains(t, rr.Broadcasts, Broadcast(BroadcastEffect{Effect: EffectIceParticles, Running: true}))
	require.Equal(t, []Effect{EffectIceParticles}, s.Effects.Sorted())
	require.True(t, s.SyncDue.IsZero())
}

func TestReduce_ScrollSyncSuspendedDuringTransition(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)

	Reduce(s, AdvanceRequest{}, cfg)
	Reduce(s, at(ScrollReported{ScrollY: 1200}, t0), cfg)
	require.True(t, s.SyncDue.IsZero())

	Reduce(s, Tick{Now: t0.Add(time.Second)}, cfg)
	require.Equal(t, ViewAbout, s.CurrentView)
}

func TestReduce_TerminalBoundaries(t *testing.T) {
	s, cfg := newReadyState(t, ViewIntro, 0)
	for _, ev := range []Event{
		WheelInput{DeltaY: -500},
		RetreatRequest{},
		TouchStart{Y: 300},
		TouchMove{Y: 500, Cancelable: true},
	} {
		rr := Reduce(s, at(ev, t0), cfg)
		require.Empty(t, rr.Commands, "%T from intro", ev)
	}
	require.Equal(t, ViewIntro, s.CurrentView)

	s, cfg = newReadyState(t, ViewTestament, 6000)
	for _, ev := range []Event{
		WheelInput{DeltaY: 500},
		WheelInput{DeltaY: 500},
		AdvanceRequest{},
	} {
		rr := Reduce(s, at(ev, t0), cfg)
		require.Empty(t, rr.Commands, "%T from testament", ev)
	}
	require.Equal(t, ViewTestament, s.CurrentView)
}

func TestReduce_PreventIntroReturn(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)
	Reduce(s, SettingsChanged{PreventIntroReturn: true}, cfg)

	rr := Reduce(s, at(WheelInput{DeltaY: -100}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.True(t, rr.PreventDefault)

	rr = Reduce(s, RetreatRequest{}, cfg)
	require.Empty(t, rr.Commands)

	Reduce(s, TouchStart{Y: 300}, cfg)
	rr = Reduce(s, at(TouchMove{Y: 400, Cancelable: true}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.True(t, rr.PreventDefault)

	// Native scrolling above Main is clamped back.
	rr = Reduce(s, at(ScrollReported{ScrollY: 600}, t0), cfg)
	require.Equal(t, []Broadcast{BroadcastSetScroll{Y: 1000}}, rr.Broadcasts)
	require.True(t, s.SyncDue.IsZero())

	// Turning it off restores the retreat.
	Reduce(s, SettingsChanged{PreventIntroReturn: false}, cfg)
	s.Layout.ScrollY = 1000
	rr = Reduce(s, at(WheelInput{DeltaY: -100}, t0), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewIntro, seqs[0].To)
}

func TestReduce_PreventIntroReturnHoldsSyncOnMain(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)
	s.Settings.PreventIntroReturn = true

	// A sync armed before the setting flipped never lands on Intro.
	s.SyncDue = t0
	s.Layout.ScrollY = 200
	rr := Reduce(s, Tick{Now: t0}, cfg)
	require.Empty(t, rr.Broadcasts)
	require.Equal(t, ViewMain, s.CurrentView)
}

func TestReduce_PreventIntroReturnClampsWhenEnabled(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 400)
	s.SyncDue = t0.Add(time.Second)

	rr := Reduce(s, at(SettingsChanged{PreventIntroReturn: true}, t0), cfg)
	require.Equal(t, []Broadcast{BroadcastSetScroll{Y: 1000}}, rr.Broadcasts)
	require.True(t, s.SyncDue.IsZero())

	// Already on: a repeated toggle is not a new clamp.
	rr = Reduce(s, at(SettingsChanged{PreventIntroReturn: true}, t0), cfg)
	require.Empty(t, rr.Broadcasts)
}

func TestReduce_PreventIntroReturnNoClampOutsideMain(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 400)
	rr := Reduce(s, at(SettingsChanged{PreventIntroReturn: true}, t0), cfg)
	require.Empty(t, rr.Broadcasts)

	s, cfg = newReadyState(t, ViewMain, 400)
	s.Transitioning = true
	rr = Reduce(s, at(SettingsChanged{PreventIntroReturn: true}, t0), cfg)
	require.Empty(t, rr.Broadcasts)
}

func TestReduce_TouchDrivesIntroMainPair(t *testing.T) {
	s, cfg := newReadyState(t, ViewIntro, 0)

	Reduce(s, TouchStart{Y: 500}, cfg)
	rr := Reduce(s, at(TouchMove{Y: 470, Cancelable: true}, t0), cfg)
	require.Empty(t, rr.Commands)
	rr = Reduce(s, at(TouchMove{Y: 440, Cancelable: true}, t0), cfg)
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewMain, seqs[0].To)

	rr = Reduce(s, at(TouchMove{Y: 300, Cancelable: true}, t0), cfg)
	require.True(t, rr.PreventDefault)
	rr = Reduce(s, at(TouchMove{Y: 300, Cancelable: false}, t0), cfg)
	require.False(t, rr.PreventDefault)
	completeTransition(t, s, cfg)

	s.Layout.ScrollY = 1000
	Reduce(s, TouchStart{Y: 300}, cfg)
	rr = Reduce(s, at(TouchMove{Y: 360, Cancelable: true}, t0), cfg)
	seqs = runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, ViewIntro, seqs[0].To)
}

func TestReduce_TouchIgnoredPastMain(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2800)
	s.Layout.Sections[ViewAbout].LastContentVisible = true

	Reduce(s, TouchStart{Y: 800}, cfg)
	rr := Reduce(s, at(TouchMove{Y: 100, Cancelable: true}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.False(t, rr.PreventDefault)
}

func TestReduce_InputIgnoredWhileModalNestedOrUnmeasured(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)

	rr := Reduce(s, at(WheelInput{DeltaY: 500, Nested: true}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.False(t, rr.PreventDefault)

	s.Wheel.Accumulate(20)
	Reduce(s, ModalChanged{Open: true}, cfg)
	require.Zero(t, s.Wheel.Value())
	for _, ev := range []Event{WheelInput{DeltaY: 500}, AdvanceRequest{}} {
		rr = Reduce(s, at(ev, t0), cfg)
		require.Empty(t, rr.Commands)
	}
	Reduce(s, ModalChanged{Open: false}, cfg)
	require.Len(t, runSequences(Reduce(s, AdvanceRequest{}, cfg)), 1)

	fresh := NewNavState(cfg)
	rr = Reduce(fresh, at(WheelInput{DeltaY: 500}, t0), cfg)
	require.Empty(t, rr.Commands)
	require.Equal(t, ViewIntro, fresh.CurrentView)
}

func TestReduce_LayoutMissingSectionRejected(t *testing.T) {
	cfg := DefaultNavConfig()
	s := NewNavState(cfg)

	l := testLayout()
	ev := layoutEvent(l)
	delete(ev.Sections, ViewTestament)

	rr := Reduce(s, at(ev, t0), cfg)
	require.Error(t, rr.Err)
	require.True(t, errors.Is(rr.Err, ErrMissingSection))
	require.False(t, s.LayoutKnown)
}

func TestReduce_GenericTransitionBroadcasts(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)

	rr := Reduce(s, AdvanceRequest{}, cfg)
	require.Equal(t, []Broadcast{
		BroadcastEffect{Effect: EffectGradientFlow, Running: false},
		BroadcastEffect{Effect: EffectMatrixRain, Running: false},
		BroadcastViewChanged{From: ViewMain, To: ViewAbout, Cause: "transition"},
		BroadcastRenderState{State: ViewToRenderState(ViewAbout)},
	}, rr.Broadcasts)
	require.Equal(t, []Effect{EffectFallingParticles}, s.Effects.Sorted())
	completeTransition(t, s, cfg)

	s.Layout.ScrollY = 2000
	rr = Reduce(s, RetreatRequest{}, cfg)
	_, ok := hasBroadcast[BroadcastResetNestedScroll](rr.Broadcasts)
	require.True(t, ok, "entering Main must reset the nested grids")
	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, 1000.0, seqs[0].Steps[0].Broadcast.(BroadcastScrollTo).Y)
}

func TestReduce_SplitTransitionCommitsViewFirst(t *testing.T) {
	s, cfg := newReadyState(t, ViewIntro, 0)

	rr := Reduce(s, AdvanceRequest{}, cfg)
	require.Equal(t, []Broadcast{
		BroadcastViewChanged{From: ViewIntro, To: ViewMain, Cause: "transition"},
	}, rr.Broadcasts)

	seqs := runSequences(rr)
	require.Len(t, seqs, 1)
	require.Equal(t, SplitOpenSteps(1000, false, cfg.Choreography), seqs[0].Steps)
	require.True(t, s.HintVisible)
}

func TestReduce_SettingsPersistOnlyFromPage(t *testing.T) {
	s, cfg := newReadyState(t, ViewMain, 1000)

	rr := Reduce(s, SettingsChanged{PreventIntroReturn: true, Persist: true}, cfg)
	require.Equal(t, []Command{CmdPersistSettings{Settings: Settings{PreventIntroReturn: true}}}, rr.Commands)

	rr = Reduce(s, SettingsChanged{PreventIntroReturn: false}, cfg)
	require.Empty(t, rr.Commands)
	require.False(t, s.Settings.PreventIntroReturn)
}

func TestReduce_SnapshotRequest(t *testing.T) {
	s, cfg := newReadyState(t, ViewAbout, 2000)
	reply := make(chan StateSnapshot, 1)

	rr := Reduce(s, RequestStateSnapshot{Reply: reply}, cfg)
	require.Len(t, rr.Commands, 1)
	cmd, ok := rr.Commands[0].(CmdPublishStateSnapshot)
	require.True(t, ok)
	require.Equal(t, ViewAbout, cmd.Snapshot.View)
	require.Equal(t, "view-about", cmd.Snapshot.Render.ViewClass)
	require.True(t, cmd.Snapshot.LayoutKnown)
}
