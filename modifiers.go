package blockview

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// baseMsPerHardnessPoint is the nominal full-break duration, in
// milliseconds, for one point of Hardness with no tool, status, or
// environment modifiers applied.
const baseMsPerHardnessPoint = 1500.0

const (
	underwaterPenalty     = 0.4
	airbornePenalty       = 0.2
	maxEnvironmentPenalty = 0.5
)

// ToolBreakSpeedModifier adjusts a running full-break-time estimate for a
// given tool and block. Modifiers are applied in registration order; each
// receives the result of the previous one.
type ToolBreakSpeedModifier func(tool string, data ViewBlockData, runningMs float64) float64

// BreakContext carries the status modifiers a host supplies for a dig
// session: haste/fatigue multipliers and an environment flag pair
// (submerged, airborne). The pair is additionally packed into a
// mgl64.Vec2 so EnvironmentPenalty can blend both flags with one clamp
// instead of branching on each independently.
type BreakContext struct {
	// Haste is a speed multiplier; 1.0 means unmodified, >1 mines faster.
	Haste float64
	// Fatigue is a slowdown multiplier; 1.0 means unmodified, >1 mines
	// slower.
	Fatigue      float64
	Underwater   bool
	Airborne     bool
	statusVector mgl64.Vec2
}

// NeutralBreakContext returns a BreakContext with no haste, fatigue, or
// environment penalty applied — the default DigManager.Start uses when a
// caller does not supply one explicitly.
func NeutralBreakContext() BreakContext {
	return BreakContext{Haste: 1, Fatigue: 1}
}

// NewBreakContext builds a BreakContext from explicit status inputs.
func NewBreakContext(haste, fatigue float64, underwater, airborne bool) BreakContext {
	c := BreakContext{Haste: haste, Fatigue: fatigue, Underwater: underwater, Airborne: airborne}
	if underwater {
		c.statusVector[0] = 1
	}
	if airborne {
		c.statusVector[1] = 1
	}
	return c
}

// EnvironmentPenalty returns a clamped multiplicative slowdown derived
// from the underwater/airborne flags; the two penalties do not stack
// beyond maxEnvironmentPenalty.
func (c BreakContext) EnvironmentPenalty() float64 {
	sum := c.statusVector[0]*underwaterPenalty + c.statusVector[1]*airbornePenalty
	return mgl64.Clamp(sum, 0, maxEnvironmentPenalty)
}

// ModifierChain is the pluggable seam full_break_ms is computed through:
// a registry of ToolBreakSpeedModifier functions applied in registration
// order, followed by the status/environment modifiers from a
// BreakContext. The core depends only on this seam, never on specific
// modifiers.
type ModifierChain struct {
	mu        sync.RWMutex
	modifiers []ToolBreakSpeedModifier
}

// NewModifierChain returns an empty chain.
func NewModifierChain() *ModifierChain { return &ModifierChain{} }

// Register appends m to the chain.
func (c *ModifierChain) Register(m ToolBreakSpeedModifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modifiers = append(c.modifiers, m)
}

// FullBreakMs computes full_break_ms for data given tool, ctx, and a
// WorldHost consulted for vanilla material hardness when data carries no
// explicit hardness of its own.
func (c *ModifierChain) FullBreakMs(data ViewBlockData, tool string, ctx BreakContext, worldHost WorldHost) float64 {
	hardness := data.Hardness()
	if hardness <= 0 && worldHost != nil {
		if h, ok := worldHost.MaterialHardness(data.Material()); ok {
			hardness = h
		}
	}

	running := hardness * baseMsPerHardnessPoint

	c.mu.RLock()
	mods := make([]ToolBreakSpeedModifier, len(c.modifiers))
	copy(mods, c.modifiers)
	c.mu.RUnlock()

	for _, m := range mods {
		running = m(tool, data, running)
	}

	running *= 1 + ctx.EnvironmentPenalty()
	if ctx.Haste > 0 {
		running /= ctx.Haste
	}
	if ctx.Fatigue > 0 {
		running *= ctx.Fatigue
	}
	if running < 0 {
		running = 0
	}
	return running
}
