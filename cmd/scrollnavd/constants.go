package main

import "time"

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01
	EV_REL = 0x02

	KEY_UP       = 103
	KEY_PAGEUP   = 104
	KEY_DOWN     = 108
	KEY_PAGEDOWN = 109
	KEY_SPACE    = 57

	REL_WHEEL        = 0x08
	REL_WHEEL_HI_RES = 0x0b
)

// Input event value constants
const (
	evValueRelease = 0
	evValuePress   = 1
	evValueRepeat  = 2
)

// Gesture detection
const (
	defaultWheelThreshold = 30.0 // cumulative deltaY (px) before a wheel gesture fires
	defaultTouchThreshold = 50.0 // cumulative touch movement (px) before a swipe fires

	// Minimum accumulated wheel delta for a content reveal to count as user-driven.
	defaultRealScrollMinDelta = 10.0

	// evdev wheel detents are translated to browser-like pixel deltas.
	defaultWheelPxPerDetent  = 100.0
	wheelHiResUnitsPerDetent = 120.0
)

// Content gate (cooldown lock)
const (
	defaultCooldown       = 1000 * time.Millisecond
	defaultViewportMargin = 20.0 // px left below the last element when locking
)

// Gates
const (
	topThresholdPx    = 10.0 // isAtTop slack
	bottomThresholdPx = 50.0 // isAtBottom slack

	// Main counts as "at its top" while scrollY <= viewportHeight + this.
	mainTopSlackPx = 10.0
)

// Scroll sync
const (
	defaultSyncDebounce = 150 * time.Millisecond
	defaultUpdateHz     = 30 // tick frequency driving debounced sync
)

// Choreography defaults (mirror the page's CSS timing variables)
const (
	defaultScrollDurationMS    = 800
	defaultTransitionBaseMS    = 300
	defaultPageIntroMS         = 700
	defaultSplitFadeoutMS      = 500
	defaultSplitParticleMS     = 300
	defaultSplitDividerMS      = 600
	defaultSplitSidebarMS      = 900
	defaultSplitTotalMS        = 1500
	defaultSplitCollapseMS     = 1200
	defaultIntroRevealDelayMS  = 600
	defaultSetScrollCoalesceMS = 16
)
