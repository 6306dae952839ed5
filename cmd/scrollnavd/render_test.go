package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestViewToRenderState(t *testing.T) {
	tests := []struct {
		view View
		want RenderState
	}{
		{ViewIntro, RenderState{
			View: ViewIntro, ViewClass: "view-intro",
			Effects: []Effect{EffectParticleNetwork},
		}},
		{ViewMain, RenderState{
			View: ViewMain, ViewClass: "view-main",
			IntroHidden: true, MainContainerVisible: true, SplitActive: true,
			DividerVisible: true, SidebarVisible: true,
			Effects: []Effect{EffectMatrixRain, EffectGradientFlow},
		}},
		{ViewAbout, RenderState{
			View: ViewAbout, ViewClass: "view-about",
			IntroHidden: true, MainContainerVisible: true, SplitActive: true,
			SidebarVisible: true,
			Effects:        []Effect{EffectFallingParticles},
		}},
		{ViewReality, RenderState{
			View: ViewReality, ViewClass: "view-reality",
			IntroHidden: true, MainContainerVisible: true, SplitActive: true,
			SidebarVisible: true,
			Effects:        []Effect{EffectIceParticles},
		}},
		{ViewTestament, RenderState{
			View: ViewTestament, ViewClass: "view-testament",
			IntroHidden: true, MainContainerVisible: true, SplitActive: true,
			SidebarVisible: true,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.view.String(), func(t *testing.T) {
			if diff := cmp.Diff(tt.want, ViewToRenderState(tt.view)); diff != "" {
				t.Fatalf("render state mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDiffEffects(t *testing.T) {
	running := NewEffectSet(EffectMatrixRain, EffectGradientFlow)

	stop, start := DiffEffects(running, []Effect{EffectGradientFlow, EffectFallingParticles})
	require.Equal(t, []Effect{EffectMatrixRain}, stop)
	require.Equal(t, []Effect{EffectFallingParticles}, start)

	stop, start = DiffEffects(running, EffectsForView(ViewMain))
	require.Empty(t, stop)
	require.Empty(t, start)
}

func TestEffectSet_Sorted(t *testing.T) {
	s := NewEffectSet(EffectMatrixRain, EffectGradientFlow)
	require.Equal(t, []Effect{EffectGradientFlow, EffectMatrixRain}, s.Sorted())
	require.True(t, s.Has(EffectMatrixRain))
	require.False(t, s.Has(EffectIceParticles))
}
