package main

import "time"

// Settings are the user-facing toggles persisted in the settings file.
type Settings struct {
	// PreventIntroReturn stops wheel, touch and scroll sync from leaving Main
	// for Intro.
	PreventIntroReturn bool `yaml:"prevent_intro_return" json:"prevent_intro_return"`
}

// NavState is the daemon-owned navigation controller state.
//
// Only the daemon goroutine reads or writes it. Everything else sees it through
// StateSnapshot values produced by the reducer.
type NavState struct {
	CurrentView View

	// Transitioning is the single-flight mutex. While set, all gesture input is
	// dropped and scroll sync is suspended.
	Transitioning bool

	// SequenceID identifies the choreography that owns the mutex. Completions
	// carrying any other ID are stale and ignored.
	SequenceID uint64

	Wheel Accumulator
	Touch TouchTracker

	// Gates holds cooldown lock state, indexed by view. Only gated views use it.
	Gates [viewCount]ContentGateState

	Layout      Layout
	LayoutKnown bool

	ModalOpen bool
	Settings  Settings

	// Effects are the background effects the page is (or will be, once the
	// running sequence finishes) running.
	Effects EffectSet

	HintVisible bool

	// SyncDue is when a debounced scroll sync should run; zero when none is armed.
	SyncDue time.Time
}

// NewNavState returns the state at page load: Intro, with its effect running.
func NewNavState(cfg NavConfig) *NavState {
	return &NavState{
		CurrentView: ViewIntro,
		Wheel:       NewWheelAccumulator(cfg.WheelThreshold),
		Touch:       TouchTracker{Acc: NewTouchAccumulator(cfg.TouchThreshold)},
		Effects:     NewEffectSet(EffectsForView(ViewIntro)...),
	}
}

// gate returns the cooldown state for v, or nil when v is not gated.
func (s *NavState) gate(v View) *ContentGateState {
	if !v.Gated() {
		return nil
	}
	return &s.Gates[v]
}

// clearGates resets cooldown state for every gated view in views.
func (s *NavState) clearGates(views ...View) {
	for _, v := range views {
		if g := s.gate(v); g != nil {
			g.Reset()
		}
	}
}

// StateSnapshot is a coherent, immutable copy of NavState for other goroutines.
type StateSnapshot struct {
	View               View        `json:"view"`
	Transitioning      bool        `json:"transitioning"`
	SequenceID         uint64      `json:"sequence_id"`
	ModalOpen          bool        `json:"modal_open"`
	PreventIntroReturn bool        `json:"prevent_intro_return"`
	LayoutKnown        bool        `json:"layout_known"`
	HintVisible        bool        `json:"hint_visible"`
	Render             RenderState `json:"render"`
	Effects            []Effect    `json:"effects"`
}

// Snapshot copies the externally visible parts of s.
func (s *NavState) Snapshot() StateSnapshot {
	return StateSnapshot{
		View:               s.CurrentView,
		Transitioning:      s.Transitioning,
		SequenceID:         s.SequenceID,
		ModalOpen:          s.ModalOpen,
		PreventIntroReturn: s.Settings.PreventIntroReturn,
		LayoutKnown:        s.LayoutKnown,
		HintVisible:        s.HintVisible,
		Render:             ViewToRenderState(s.CurrentView),
		Effects:            s.Effects.Sorted(),
	}
}
