package main

import (
	"errors"
	"fmt"
)

// ErrMissingSection is returned when a layout report lacks a section the
// navigation controller needs. It indicates broken page markup, not a runtime
// condition, and is never retried.
var ErrMissingSection = errors.New("required section missing from layout")

// SectionMetrics is what the page reports about one section element.
// It is the data form of the section component contract: offsets to scroll to,
// and the answers to "is the last content visible" / "is the nested grid at top".
type SectionMetrics struct {
	Present bool `json:"present"`

	// OffsetTop is the element's document offset; Height its scroll height.
	OffsetTop float64 `json:"offset_top"`
	Height    float64 `json:"height"`

	// LastContentVisible is true once the final content element's bottom is
	// inside the viewport.
	LastContentVisible bool `json:"last_content_visible"`

	// LastContentBottom is the final content element's bottom edge relative to
	// the viewport top. Zero with HasLastContent=false when unknown.
	LastContentBottom float64 `json:"last_content_bottom"`
	HasLastContent    bool    `json:"has_last_content"`

	// NestedAtTop reports whether the section's independently scrollable grid
	// is scrolled to its top. Only meaningful for Main.
	NestedAtTop bool `json:"nested_at_top"`
}

// Layout is the latest page measurement snapshot.
type Layout struct {
	ViewportHeight float64                   `json:"viewport_height"`
	ScrollY        float64                   `json:"scroll_y"`
	Sections       [viewCount]SectionMetrics `json:"sections"`
}

// Validate fails fast when a required section is absent.
func (l Layout) Validate() error {
	if l.ViewportHeight <= 0 {
		return fmt.Errorf("layout: viewport_height must be > 0, got %v", l.ViewportHeight)
	}
	for _, v := range AllViews() {
		if !l.Sections[v].Present {
			return fmt.Errorf("layout: %s: %w", v, ErrMissingSection)
		}
	}
	return nil
}

// Section returns the metrics for v.
func (l *Layout) Section(v View) SectionMetrics {
	if !v.Valid() {
		return SectionMetrics{}
	}
	return l.Sections[v]
}

// OffsetOf returns the scroll offset a transition into v targets.
// Intro is always the document top and Main sits one viewport below it.
func (l *Layout) OffsetOf(v View) float64 {
	switch v {
	case ViewIntro:
		return 0
	case ViewMain:
		return l.ViewportHeight
	default:
		return l.Section(v).OffsetTop
	}
}

// IsAtTop reports whether the window scroll is at (or above) the top of v.
func (l *Layout) IsAtTop(v View, threshold float64) bool {
	return l.ScrollY <= l.Section(v).OffsetTop+threshold
}

// IsAtBottom reports whether the window bottom reached the end of v.
func (l *Layout) IsAtBottom(v View, threshold float64) bool {
	s := l.Section(v)
	return l.ScrollY+l.ViewportHeight >= s.OffsetTop+s.Height-threshold
}

// MainAtTop reports whether the window is still at the top of Main.
func (l *Layout) MainAtTop() bool {
	return l.ScrollY <= l.ViewportHeight+mainTopSlackPx
}

// CanAdvance is the forward gate for view v.
func CanAdvance(v View, l *Layout) bool {
	switch v {
	case ViewIntro, ViewMain:
		return true
	case ViewAbout, ViewReality:
		return l.Section(v).LastContentVisible
	default:
		return false
	}
}

// CanRetreat is the backward gate for view v.
func CanRetreat(v View, l *Layout) bool {
	switch v {
	case ViewIntro:
		return false
	case ViewMain:
		return l.Section(ViewMain).NestedAtTop
	case ViewAbout, ViewReality, ViewTestament:
		return l.IsAtTop(v, topThresholdPx)
	default:
		return false
	}
}

// ViewAtScroll infers which view the given scroll position belongs to.
// A section owns the position once its top is less than half a viewport away.
func ViewAtScroll(scrollY float64, l *Layout) View {
	half := l.ViewportHeight * 0.5
	switch {
	case scrollY < half:
		return ViewIntro
	case scrollY < l.Section(ViewAbout).OffsetTop-half:
		return ViewMain
	case scrollY < l.Section(ViewReality).OffsetTop-half:
		return ViewAbout
	case scrollY < l.Section(ViewTestament).OffsetTop-half:
		return ViewReality
	default:
		return ViewTestament
	}
}
