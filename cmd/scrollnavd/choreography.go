package main

import (
	"fmt"
	"sort"
	"time"
)

// ChoreographyConfig holds the page's animation timings. They mirror the CSS
// variables the page declares and only shape when messages are sent.
type ChoreographyConfig struct {
	ScrollDuration   time.Duration
	TransitionBase   time.Duration
	PageIntro        time.Duration
	SplitFadeout     time.Duration
	SplitParticle    time.Duration
	SplitDivider     time.Duration
	SplitSidebar     time.Duration
	SplitTotal       time.Duration
	SplitCollapse    time.Duration
	IntroRevealDelay time.Duration
}

func defaultChoreographyConfig() ChoreographyConfig {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return ChoreographyConfig{
		ScrollDuration:   ms(defaultScrollDurationMS),
		TransitionBase:   ms(defaultTransitionBaseMS),
		PageIntro:        ms(defaultPageIntroMS),
		SplitFadeout:     ms(defaultSplitFadeoutMS),
		SplitParticle:    ms(defaultSplitParticleMS),
		SplitDivider:     ms(defaultSplitDividerMS),
		SplitSidebar:     ms(defaultSplitSidebarMS),
		SplitTotal:       ms(defaultSplitTotalMS),
		SplitCollapse:    ms(defaultSplitCollapseMS),
		IntroRevealDelay: ms(defaultIntroRevealDelayMS),
	}
}

// Step waits Delay, then emits Broadcast. A nil Broadcast is a pure wait.
type Step struct {
	Delay     time.Duration
	Broadcast Broadcast
}

// Sequence is one transition's choreography. The mutex is released when the
// last step has run.
type Sequence struct {
	ID    uint64
	From  View
	To    View
	Steps []Step
}

// Duration is the total time the sequence takes.
func (s Sequence) Duration() time.Duration {
	var d time.Duration
	for _, st := range s.Steps {
		d += st.Delay
	}
	return d
}

func (s Sequence) String() string {
	return fmt.Sprintf("Sequence(id=%d %s->%s steps=%d duration=%s)", s.ID, s.From, s.To, len(s.Steps), s.Duration())
}

// timeline collects cues at absolute offsets and flattens them into relative
// steps. Cues at the same offset keep insertion order.
type timeline struct {
	cues []cue
}

type cue struct {
	at time.Duration
	b  Broadcast
}

func (t *timeline) add(at time.Duration, b Broadcast) {
	t.cues = append(t.cues, cue{at: at, b: b})
}

// waitUntil pins the end of the sequence to at.
func (t *timeline) waitUntil(at time.Duration) {
	t.cues = append(t.cues, cue{at: at})
}

func (t *timeline) steps() []Step {
	sort.SliceStable(t.cues, func(i, j int) bool { return t.cues[i].at < t.cues[j].at })

	out := make([]Step, 0, len(t.cues))
	var prev time.Duration
	for _, c := range t.cues {
		if c.b == nil && c.at == prev && len(out) > 0 {
			continue
		}
		out = append(out, Step{Delay: c.at - prev, Broadcast: c.b})
		prev = c.at
	}
	return out
}

// hint schedules the scroll hint for arriving at to, starting at offset at.
func (t *timeline) hint(at time.Duration, to View, visible bool, delay, hideWait time.Duration) {
	show := to.Interior()
	switch {
	case show && !visible:
		t.add(at+delay, BroadcastScrollHint{Visible: true})
	case !show && visible:
		t.add(at, BroadcastScrollHint{Visible: false})
		t.waitUntil(at + hideWait)
	}
}

// AdjacentSteps is the plain choreography between two neighbouring views other
// than the Intro/Main pair: scroll to the target, start the target's effects,
// then settle the hint. Exit effects are emitted by the reducer before the
// sequence starts.
func AdjacentSteps(to View, targetY float64, hintVisible bool, cfg ChoreographyConfig) []Step {
	var tl timeline
	tl.add(0, BroadcastScrollTo{Y: targetY, Duration: cfg.ScrollDuration})

	at := cfg.ScrollDuration
	for _, e := range EffectsForView(to) {
		tl.add(at, BroadcastEffect{Effect: e, Running: true})
	}
	tl.waitUntil(at)

	delay := cfg.TransitionBase
	if to == ViewTestament {
		delay = 0
	}
	tl.hint(at, to, hintVisible, delay, cfg.TransitionBase)
	return tl.steps()
}

// SplitOpenSteps is the Intro to Main choreography: scroll down, shake the
// intro away, split the panels, then reveal divider and sidebar.
func SplitOpenSteps(mainY float64, hintVisible bool, cfg ChoreographyConfig) []Step {
	var tl timeline
	tl.add(0, BroadcastScrollTo{Y: mainY, Duration: cfg.ScrollDuration})

	at := cfg.ScrollDuration
	tl.add(at, BroadcastChrome{Part: ChromeIntroShake, On: true})

	split := at + cfg.SplitFadeout
	tl.add(split, BroadcastChrome{Part: ChromeIntro, On: false})
	tl.add(split, BroadcastChrome{Part: ChromeIntroShake, On: false})
	tl.add(split, BroadcastChrome{Part: ChromeSplit, On: true})
	tl.add(split+cfg.SplitParticle, BroadcastParticleBurst{})
	tl.add(split+cfg.SplitDivider, BroadcastChrome{Part: ChromeDivider, On: true})
	tl.add(split+cfg.SplitSidebar, BroadcastChrome{Part: ChromeSidebar, On: true})

	done := split + cfg.SplitTotal
	tl.add(done, BroadcastChrome{Part: ChromeMainContainer, On: true})
	for _, e := range EffectsForView(ViewIntro) {
		tl.add(done, BroadcastEffect{Effect: e, Running: false})
	}
	for _, e := range EffectsForView(ViewMain) {
		tl.add(done, BroadcastEffect{Effect: e, Running: true})
	}
	tl.add(done, BroadcastRenderState{State: ViewToRenderState(ViewMain)})
	tl.waitUntil(done)

	tl.hint(done, ViewMain, hintVisible, cfg.PageIntro, cfg.TransitionBase)
	return tl.steps()
}

// SplitCloseSteps reverses SplitOpenSteps: hide the hint, collapse the panels,
// wait for the collapse, scroll to the top, then fade the intro back in.
func SplitCloseSteps(hintVisible bool, cfg ChoreographyConfig) []Step {
	var tl timeline

	var at time.Duration
	if hintVisible {
		tl.add(0, BroadcastScrollHint{Visible: false})
		at = cfg.TransitionBase
	}

	tl.add(at, BroadcastChrome{Part: ChromeDivider, On: false})
	tl.add(at, BroadcastChrome{Part: ChromeSidebar, On: false})
	for _, e := range EffectsForView(ViewMain) {
		tl.add(at, BroadcastEffect{Effect: e, Running: false})
	}
	tl.add(at, BroadcastChrome{Part: ChromeSplit, On: false})

	at += cfg.SplitCollapse
	tl.add(at, BroadcastScrollTo{Y: 0, Duration: cfg.ScrollDuration})

	at += cfg.ScrollDuration + cfg.IntroRevealDelay
	tl.add(at, BroadcastChrome{Part: ChromeIntro, On: true})
	tl.add(at, BroadcastChrome{Part: ChromeMainContainer, On: false})
	for _, e := range EffectsForView(ViewIntro) {
		tl.add(at, BroadcastEffect{Effect: e, Running: true})
	}
	tl.add(at, BroadcastRenderState{State: ViewToRenderState(ViewIntro)})
	return tl.steps()
}
