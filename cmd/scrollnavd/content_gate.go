package main

import "time"

// ContentGateConfig tunes the cooldown lock on progressively revealed sections.
type ContentGateConfig struct {
	Cooldown       time.Duration
	ViewportMargin float64

	// RealScrollMinDelta is the downward travel (px) that must precede a reveal
	// for it to count as user-driven. It is a heuristic: reveals caused by
	// entrance animations typically happen with little or no travel.
	RealScrollMinDelta float64
}

func defaultContentGateConfig() ContentGateConfig {
	return ContentGateConfig{
		Cooldown:           defaultCooldown,
		ViewportMargin:     defaultViewportMargin,
		RealScrollMinDelta: defaultRealScrollMinDelta,
	}
}

// ContentGateState is the per-section cooldown lock bookkeeping.
// The zero value is the "never checked" state.
type ContentGateState struct {
	// LastVisible is nil until the first check after entering the section.
	LastVisible *bool

	// Travel is the advancing wheel delta seen while the last content was hidden.
	Travel float64

	CooldownEndsAt time.Time
	LockedScrollY  *float64
}

// ContentGateInput is one advancing wheel sample on a gated section.
type ContentGateInput struct {
	Visible bool
	Now     time.Time

	ScrollY        float64
	ViewportHeight float64

	// LastContentBottom is the last element's bottom edge relative to the
	// viewport top; ignored unless HasLastContent.
	LastContentBottom float64
	HasLastContent    bool
}

// ContentGateResult tells the reducer what to do with the sample.
type ContentGateResult struct {
	Allow          bool
	PreventDefault bool

	// Locked is true when this sample engaged a new lock.
	Locked bool

	// ClampY, when set, is an instant scroll back to the locked offset.
	ClampY *float64
}

// Reset returns the gate to its "never checked" state.
func (g *ContentGateState) Reset() { *g = ContentGateState{} }

// Active reports whether a cooldown is still running at now.
func (g *ContentGateState) Active(now time.Time) bool {
	return !g.CooldownEndsAt.IsZero() && now.Before(g.CooldownEndsAt)
}

// Hold denies an advance during an active cooldown: the window slides to
// now+Cooldown and the result carries the clamp back to the locked offset.
func (g *ContentGateState) Hold(now time.Time, cfg ContentGateConfig) ContentGateResult {
	g.CooldownEndsAt = now.Add(cfg.Cooldown)
	res := ContentGateResult{PreventDefault: true}
	if g.LockedScrollY != nil {
		y := *g.LockedScrollY
		res.ClampY = &y
	}
	return res
}

// ObserveHidden records an advancing sample that the transition gate denied
// because the last content is not visible yet. It never touches the lock.
func (g *ContentGateState) ObserveHidden(delta float64) {
	hidden := false
	g.LastVisible = &hidden
	if delta > 0 {
		g.Travel += delta
	}
}

// Check runs the cooldown lock for an advancing sample the transition gate
// already allowed.
func (g *ContentGateState) Check(in ContentGateInput, cfg ContentGateConfig) ContentGateResult {
	switch {
	case g.LastVisible == nil:
		// First check since entering: whatever we see was not caused by the user.
		v := in.Visible
		g.LastVisible = &v
		g.Travel = 0

	case !*g.LastVisible && in.Visible:
		visible := true
		g.LastVisible = &visible
		travel := g.Travel
		g.Travel = 0

		if travel > cfg.RealScrollMinDelta {
			ideal := in.ScrollY
			if in.HasLastContent {
				ideal = in.ScrollY + in.LastContentBottom - in.ViewportHeight + cfg.ViewportMargin
			}
			g.LockedScrollY = &ideal
			g.CooldownEndsAt = in.Now.Add(cfg.Cooldown)
			return ContentGateResult{PreventDefault: true, Locked: true}
		}
	}

	if g.Active(in.Now) {
		return g.Hold(in.Now, cfg)
	}

	if !g.CooldownEndsAt.IsZero() {
		g.CooldownEndsAt = time.Time{}
		g.LockedScrollY = nil
	}

	v := in.Visible
	g.LastVisible = &v
	return ContentGateResult{Allow: true}
}
