package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// View is one of the five full-screen sections, in page order.
type View int

const (
	ViewIntro View = iota
	ViewMain
	ViewAbout
	ViewReality
	ViewTestament

	viewCount = int(ViewTestament) + 1
)

var viewNames = [viewCount]string{"intro", "main", "about", "reality", "testament"}

// AllViews lists every view in page order.
func AllViews() []View {
	return []View{ViewIntro, ViewMain, ViewAbout, ViewReality, ViewTestament}
}

func (v View) Valid() bool { return v >= ViewIntro && v <= ViewTestament }

func (v View) String() string {
	if !v.Valid() {
		return fmt.Sprintf("view(%d)", int(v))
	}
	return viewNames[v]
}

// Next returns the following view; ok is false at Testament.
func (v View) Next() (View, bool) {
	if !v.Valid() || v == ViewTestament {
		return v, false
	}
	return v + 1, true
}

// Prev returns the preceding view; ok is false at Intro.
func (v View) Prev() (View, bool) {
	if !v.Valid() || v == ViewIntro {
		return v, false
	}
	return v - 1, true
}

// Interior reports whether v is neither the first nor the last view.
// The scroll hint is only shown on interior views.
func (v View) Interior() bool {
	return v > ViewIntro && v < ViewTestament
}

// Gated reports whether v reveals its content progressively and therefore
// runs the cooldown lock before advancing.
func (v View) Gated() bool {
	return v == ViewAbout || v == ViewReality
}

// ViewClass is the single body class tag reflecting the view.
func (v View) ViewClass() string {
	return "view-" + v.String()
}

// ParseView parses a lowercase view name.
func ParseView(s string) (View, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range viewNames {
		if name == s {
			return View(i), nil
		}
	}
	return 0, fmt.Errorf("unknown view: %q", s)
}

func (v View) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("marshal view: invalid value %d", int(v))
	}
	return json.Marshal(v.String())
}

func (v *View) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unmarshal view: %w", err)
	}
	parsed, err := ParseView(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalText lets View be used as a JSON object key.
func (v View) MarshalText() ([]byte, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("marshal view: invalid value %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *View) UnmarshalText(b []byte) error {
	parsed, err := ParseView(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
