package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is the input to the reducer.
type Event interface {
	eventMarker()
}

// TimedEvent stamps a payload event with its arrival time. Sources send bare
// payloads; the daemon loop wraps them so the reducer never reads the clock.
type TimedEvent struct {
	Event Event
	At    time.Time
}

func (TimedEvent) eventMarker() {}

// Tick is emitted by the daemon loop at a fixed cadence.
// Dt is wall-clock delta in seconds between ticks.
type Tick struct {
	Now time.Time
	Dt  float64
}

func (Tick) eventMarker() {}

// ============================================================================
// Page input
// ============================================================================

// WheelInput is one wheel event. Nested is true when the event target sits
// inside an independently scrollable grid.
type WheelInput struct {
	DeltaY float64 `json:"delta_y"`
	Nested bool    `json:"nested,omitempty"`
}

func (WheelInput) eventMarker() {}

// TouchStart begins a touch gesture.
type TouchStart struct {
	Y float64 `json:"y"`
}

func (TouchStart) eventMarker() {}

// TouchMove continues a touch gesture.
type TouchMove struct {
	Y          float64 `json:"y"`
	Cancelable bool    `json:"cancelable"`
}

func (TouchMove) eventMarker() {}

// ScrollReported carries the page's native scroll position.
type ScrollReported struct {
	ScrollY float64 `json:"scroll_y"`
}

func (ScrollReported) eventMarker() {}

// LayoutReported is a full measurement of the page. Sections absent from the
// map are treated as missing.
type LayoutReported struct {
	ViewportHeight float64                 `json:"viewport_height"`
	ScrollY        float64                 `json:"scroll_y"`
	Sections       map[View]SectionMetrics `json:"sections"`
}

func (LayoutReported) eventMarker() {}

// Layout converts the report into the reducer's fixed-size layout.
func (e LayoutReported) Layout() Layout {
	l := Layout{ViewportHeight: e.ViewportHeight, ScrollY: e.ScrollY}
	for v, m := range e.Sections {
		if !v.Valid() {
			continue
		}
		m.Present = true
		l.Sections[v] = m
	}
	return l
}

// AdvanceRequest asks for the next view directly (keyboard, CTA, IPC).
type AdvanceRequest struct{}

func (AdvanceRequest) eventMarker() {}

// RetreatRequest asks for the previous view directly.
type RetreatRequest struct{}

func (RetreatRequest) eventMarker() {}

// ModalChanged reports the modal/overlay flag.
type ModalChanged struct {
	Open bool `json:"open"`
}

func (ModalChanged) eventMarker() {}

// SettingsChanged updates user settings. Persist is set when the change came
// from the page and should be written back to the settings file.
type SettingsChanged struct {
	PreventIntroReturn bool `json:"prevent_intro_return"`
	Persist            bool `json:"-"`
}

func (SettingsChanged) eventMarker() {}

// ============================================================================
// Internal events
// ============================================================================

// SequenceCompleted is reported by the sequencer when a choreography ends.
type SequenceCompleted struct {
	ID uint64
	At time.Time
}

func (SequenceCompleted) eventMarker() {}

// EffectFailed is emitted when executing a Command fails.
type EffectFailed struct {
	Command Command
	Err     error
	At      time.Time
}

func (EffectFailed) eventMarker() {}

// RequestStateSnapshot asks the daemon loop for a coherent snapshot.
type RequestStateSnapshot struct {
	Reply chan<- StateSnapshot
}

func (RequestStateSnapshot) eventMarker() {}

// ============================================================================
// JSON Encoding/Decoding Support
// ============================================================================

// EventEnvelope wraps an event with a type discriminator for JSON marshaling.
// The same envelope is used on the WebSocket and the IPC socket.
type EventEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func unmarshalData[T Event](env EventEnvelope, name string) (Event, error) {
	var v T
	if len(env.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return v, nil
}

// UnmarshalEvent deserializes a JSON event envelope into a concrete Event.
func UnmarshalEvent(data []byte) (Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "wheel":
		return unmarshalData[WheelInput](env, "WheelInput")
	case "touch_start":
		return unmarshalData[TouchStart](env, "TouchStart")
	case "touch_move":
		return unmarshalData[TouchMove](env, "TouchMove")
	case "scroll":
		return unmarshalData[ScrollReported](env, "ScrollReported")
	case "layout":
		return unmarshalData[LayoutReported](env, "LayoutReported")
	case "advance":
		return AdvanceRequest{}, nil
	case "retreat":
		return RetreatRequest{}, nil
	case "modal":
		return unmarshalData[ModalChanged](env, "ModalChanged")
	case "settings":
		ev, err := unmarshalData[SettingsChanged](env, "SettingsChanged")
		if err != nil {
			return nil, err
		}
		s := ev.(SettingsChanged)
		s.Persist = true
		return s, nil
	default:
		return nil, fmt.Errorf("unknown event type: %q", env.Type)
	}
}

// MarshalEvent serializes an Event into a JSON envelope with type discriminator.
func MarshalEvent(e Event) ([]byte, error) {
	var env EventEnvelope
	var payload any

	switch e := e.(type) {
	case WheelInput:
		env.Type, payload = "wheel", e
	case TouchStart:
		env.Type, payload = "touch_start", e
	case TouchMove:
		env.Type, payload = "touch_move", e
	case ScrollReported:
		env.Type, payload = "scroll", e
	case LayoutReported:
		env.Type, payload = "layout", e
	case AdvanceRequest:
		env.Type = "advance"
	case RetreatRequest:
		env.Type = "retreat"
	case ModalChanged:
		env.Type, payload = "modal", e
	case SettingsChanged:
		env.Type, payload = "settings", e
	default:
		return nil, fmt.Errorf("unsupported event type: %T", e)
	}

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", env.Type, err)
		}
		env.Data = data
	}
	return json.Marshal(env)
}
