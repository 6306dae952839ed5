package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// daemonHarness runs the daemon loop with a real sequencer on a compressed
// choreography so transitions finish almost immediately.
type daemonHarness struct {
	t      *testing.T
	ctx    context.Context
	cancel context.CancelFunc
	events chan Event
	out    chan Broadcast
	seq    *Sequencer
	done   chan struct{}
}

func startDaemon(t *testing.T, deps effectDeps, withSequencer bool) *daemonHarness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	h := &daemonHarness{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
		events: make(chan Event, 64),
		out:    make(chan Broadcast, 1024),
		done:   make(chan struct{}),
	}

	if withSequencer {
		h.seq = NewSequencer(nil,
			func(b Broadcast) { publishBroadcast(h.out, b, slog.Default()) },
			func(sc SequenceCompleted) {
				select {
				case h.events <- sc:
				case <-ctx.Done():
				}
			},
			slog.Default())
		deps.sequencer = h.seq
	}

	cfg := DefaultNavConfig()
	cfg.Choreography = ChoreographyConfig{}
	cfg.SyncDebounce = 20 * time.Millisecond

	state := NewNavState(cfg)
	go func() {
		defer close(h.done)
		runDaemon(ctx, h.events, state, cfg, deps, h.out, 200, slog.Default())
	}()
	return h
}

func (h *daemonHarness) stop() {
	h.cancel()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		h.t.Fatalf("timeout waiting for daemon to stop")
	}
	if h.seq != nil {
		h.seq.Wait()
	}
}

func (h *daemonHarness) send(ev Event) {
	h.t.Helper()
	select {
	case h.events <- ev:
	case <-time.After(time.Second):
		h.t.Fatalf("timeout sending %T", ev)
	}
}

func (h *daemonHarness) snapshot() StateSnapshot {
	h.t.Helper()
	snap, err := requestSnapshot(h.ctx, h.events, time.Second)
	if err != nil {
		h.t.Fatalf("snapshot: %v", err)
	}
	return snap
}

// waitView polls snapshots until the daemon settles on v.
func (h *daemonHarness) waitView(v View) {
	h.t.Helper()
	waitUntil(h.t, 2*time.Second, func() bool {
		snap := h.snapshot()
		return snap.View == v && !snap.Transitioning
	}, "daemon never settled on "+v.String())
}

func TestDaemon_TransitionsEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := startDaemon(t, effectDeps{}, true)
	defer h.stop()

	h.send(layoutEvent(testLayout()))
	if snap := h.snapshot(); !snap.LayoutKnown || snap.View != ViewIntro {
		t.Fatalf("expected measured intro, got %+v", snap)
	}

	h.send(AdvanceRequest{})
	h.waitView(ViewMain)

	// Main's nested grid is at top and the wheel fires past the threshold.
	h.send(WheelInput{DeltaY: 40})
	h.waitView(ViewAbout)

	// The page scrolls to Reality natively; the debounced sync follows.
	h.send(ScrollReported{ScrollY: 4000})
	h.waitView(ViewReality)

	var sawSync, sawTransition bool
	for len(h.out) > 0 {
		if vc, ok := (<-h.out).(BroadcastViewChanged); ok {
			switch vc.Cause {
			case "sync":
				sawSync = true
			case "transition":
				sawTransition = true
			}
		}
	}
	if !sawSync || !sawTransition {
		t.Fatalf("expected both transition and sync view changes (transition=%v sync=%v)", sawTransition, sawSync)
	}
}

func TestDaemon_MissingSequencerReleasesMutex(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := startDaemon(t, effectDeps{}, false)
	defer h.stop()

	h.send(layoutEvent(testLayout()))
	h.send(AdvanceRequest{})

	// The view is committed up front; the failed start frees the mutex.
	h.waitView(ViewMain)
}

func TestDaemon_PersistsPageSettings(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewSettingsStore(filepath.Join(t.TempDir(), "settings.yaml"))
	h := startDaemon(t, effectDeps{settings: store}, false)
	defer h.stop()

	ev, err := UnmarshalEvent([]byte(`{"type":"settings","data":{"prevent_intro_return":true}}`))
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	h.send(ev)

	waitUntil(t, time.Second, func() bool {
		st, err := store.Load()
		return err == nil && st.PreventIntroReturn
	}, "settings never persisted")

	if snap := h.snapshot(); !snap.PreventIntroReturn {
		t.Fatalf("expected snapshot to reflect the setting, got %+v", snap)
	}
}

func TestDaemon_StopsWhenEventsClosed(t *testing.T) {
	defer goleak.VerifyNone(t)

	events := make(chan Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		runDaemon(context.Background(), events, NewNavState(DefaultNavConfig()), DefaultNavConfig(), effectDeps{}, nil, 0, slog.Default())
	}()

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for daemon to stop")
	}
}

func TestPublishBroadcast_NeverBlocks(t *testing.T) {
	out := make(chan Broadcast, 1)
	publishBroadcast(out, BroadcastParticleBurst{}, slog.Default())
	publishBroadcast(out, BroadcastResetNestedScroll{}, slog.Default())
	publishBroadcast(nil, BroadcastParticleBurst{}, slog.Default())

	if got := <-out; got != (BroadcastParticleBurst{}) {
		t.Fatalf("expected the first broadcast to survive, got %s", describeBroadcast(got))
	}
}
