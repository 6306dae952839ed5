package main

import (
	"fmt"
	"time"
)

// Broadcast is a reducer- or sequencer-emitted message for the page renderer.
// The WS broadcaster turns each one into a typed JSON frame.
type Broadcast interface {
	broadcastMarker()
}

// BroadcastViewChanged announces a committed CurrentView change.
// Cause is "transition" or "sync".
type BroadcastViewChanged struct {
	From  View
	To    View
	Cause string
}

func (BroadcastViewChanged) broadcastMarker() {}

// BroadcastRenderState carries the steady-state rendering for a view.
type BroadcastRenderState struct {
	State RenderState
}

func (BroadcastRenderState) broadcastMarker() {}

// BroadcastScrollTo asks the page to smooth-scroll.
type BroadcastScrollTo struct {
	Y        float64
	Duration time.Duration
}

func (BroadcastScrollTo) broadcastMarker() {}

// BroadcastSetScroll asks the page to jump to Y instantly (lock clamp).
type BroadcastSetScroll struct {
	Y float64
}

func (BroadcastSetScroll) broadcastMarker() {}

// BroadcastEffect starts (Running) or stops a background effect.
type BroadcastEffect struct {
	Effect  Effect
	Running bool
}

func (BroadcastEffect) broadcastMarker() {}

// ChromePart is a piece of page chrome driven by the split choreography.
type ChromePart string

const (
	ChromeIntroShake    ChromePart = "intro_shake"
	ChromeIntro         ChromePart = "intro"
	ChromeSplit         ChromePart = "split"
	ChromeDivider       ChromePart = "divider"
	ChromeSidebar       ChromePart = "sidebar"
	ChromeMainContainer ChromePart = "main_container"
)

// BroadcastChrome toggles one chrome part.
type BroadcastChrome struct {
	Part ChromePart
	On   bool
}

func (BroadcastChrome) broadcastMarker() {}

// BroadcastParticleBurst fires the decorative burst at viewport center.
type BroadcastParticleBurst struct{}

func (BroadcastParticleBurst) broadcastMarker() {}

// BroadcastScrollHint shows or hides the scroll hint.
type BroadcastScrollHint struct {
	Visible bool
}

func (BroadcastScrollHint) broadcastMarker() {}

// BroadcastResetNestedScroll scrolls the project/art grids back to their top.
type BroadcastResetNestedScroll struct{}

func (BroadcastResetNestedScroll) broadcastMarker() {}

// BroadcastInputOutcome tells the page the daemon consumed its last input.
type BroadcastInputOutcome struct {
	PreventDefault bool
}

func (BroadcastInputOutcome) broadcastMarker() {}

// BroadcastTransitionDone is emitted once the mutex is released.
type BroadcastTransitionDone struct {
	ID   uint64
	View View
}

func (BroadcastTransitionDone) broadcastMarker() {}

// describeBroadcast renders b for debug logs.
func describeBroadcast(b Broadcast) string {
	switch m := b.(type) {
	case BroadcastViewChanged:
		return fmt.Sprintf("view_changed(%s->%s, %s)", m.From, m.To, m.Cause)
	case BroadcastRenderState:
		return m.State.String()
	case BroadcastScrollTo:
		return fmt.Sprintf("scroll_to(y=%.0f, %s)", m.Y, m.Duration)
	case BroadcastSetScroll:
		return fmt.Sprintf("set_scroll(y=%.0f)", m.Y)
	case BroadcastEffect:
		if m.Running {
			return "effect_start(" + string(m.Effect) + ")"
		}
		return "effect_stop(" + string(m.Effect) + ")"
	case BroadcastChrome:
		return fmt.Sprintf("chrome(%s=%v)", m.Part, m.On)
	case BroadcastParticleBurst:
		return "particle_burst"
	case BroadcastScrollHint:
		return fmt.Sprintf("scroll_hint(%v)", m.Visible)
	case BroadcastResetNestedScroll:
		return "reset_nested_scroll"
	case BroadcastInputOutcome:
		return fmt.Sprintf("input_outcome(prevent_default=%v)", m.PreventDefault)
	case BroadcastTransitionDone:
		return fmt.Sprintf("transition_done(id=%d, %s)", m.ID, m.View)
	default:
		return fmt.Sprintf("%T", b)
	}
}
