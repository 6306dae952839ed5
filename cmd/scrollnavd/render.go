package main

import (
	"fmt"
	"sort"
)

// Effect names a background animation the page owns.
type Effect string

const (
	EffectParticleNetwork  Effect = "particle_network"
	EffectMatrixRain       Effect = "matrix_rain"
	EffectGradientFlow     Effect = "gradient_flow"
	EffectFallingParticles Effect = "falling_particles"
	EffectIceParticles     Effect = "ice_particles"
)

// EffectsForView lists the background effects that run while v is current.
func EffectsForView(v View) []Effect {
	switch v {
	case ViewIntro:
		return []Effect{EffectParticleNetwork}
	case ViewMain:
		return []Effect{EffectMatrixRain, EffectGradientFlow}
	case ViewAbout:
		return []Effect{EffectFallingParticles}
	case ViewReality:
		return []Effect{EffectIceParticles}
	default:
		return nil
	}
}

// RenderState is everything the page needs to reflect a view, minus the
// timing. The page maps each flag to its class toggles.
type RenderState struct {
	View      View   `json:"view"`
	ViewClass string `json:"view_class"`

	IntroHidden          bool `json:"intro_hidden"`
	MainContainerVisible bool `json:"main_container_visible"`
	SplitActive          bool `json:"split_active"`
	DividerVisible       bool `json:"divider_visible"`
	SidebarVisible       bool `json:"sidebar_visible"`

	Effects []Effect `json:"effects"`
}

// ViewToRenderState is the steady-state rendering for v.
func ViewToRenderState(v View) RenderState {
	rs := RenderState{
		View:      v,
		ViewClass: v.ViewClass(),
		Effects:   EffectsForView(v),
	}
	if v == ViewIntro {
		return rs
	}
	rs.IntroHidden = true
	rs.MainContainerVisible = true
	rs.SplitActive = true
	rs.SidebarVisible = true
	rs.DividerVisible = v == ViewMain
	return rs
}

func (r RenderState) String() string {
	return fmt.Sprintf("RenderState(%s intro_hidden=%v main=%v split=%v divider=%v sidebar=%v effects=%v)",
		r.View, r.IntroHidden, r.MainContainerVisible, r.SplitActive, r.DividerVisible, r.SidebarVisible, r.Effects)
}

// EffectSet is the set of background effects currently running on the page.
type EffectSet map[Effect]struct{}

// NewEffectSet builds a set from a list.
func NewEffectSet(effects ...Effect) EffectSet {
	s := make(EffectSet, len(effects))
	for _, e := range effects {
		s[e] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s EffectSet) Has(e Effect) bool {
	_, ok := s[e]
	return ok
}

// Sorted returns the members in a stable order.
func (s EffectSet) Sorted() []Effect {
	out := make([]Effect, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DiffEffects returns what must stop and start to go from running to want.
// Stops come back in stable order so the page sees deterministic commands.
func DiffEffects(running EffectSet, want []Effect) (stop, start []Effect) {
	wanted := NewEffectSet(want...)
	for _, e := range running.Sorted() {
		if !wanted.Has(e) {
			stop = append(stop, e)
		}
	}
	for _, e := range want {
		if !running.Has(e) {
			start = append(start, e)
		}
	}
	return stop, start
}
