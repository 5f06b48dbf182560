package blockview

import "fmt"

// ViewBlockData describes a single overridden block. It is a capability
// interface rather than a sealed hierarchy: the two concrete variants
// (Vanilla, Custom) both satisfy it, and callers dispatch on behaviour
// rather than on a type switch wherever possible.
//
// Two values whose Serialize output is equal must always receive the same
// registry id (see BlockDataRegistry.Intern) — Serialize is the only
// notion of identity the registry understands.
type ViewBlockData interface {
	// Serialize returns the canonical string used as the registry key.
	Serialize() string
	// Material returns a short descriptor of the block's material family.
	Material() string
	// Hardness returns the base mining hardness used by full_break_ms
	// computation.
	Hardness() float64
	// Resumable reports whether destruction progress on this block
	// persists across a dig cancellation.
	Resumable() bool
	// PreferredTool reports whether tool is the preferred tool for
	// harvesting this block (affects break-speed, not eligibility).
	PreferredTool(tool string) bool
	// ToWireState returns the value the host's PacketSink should encode
	// on the wire for this override.
	ToWireState() any
}

// Air is the reserved "no block" override value, pre-bound to AirID in
// every registry.
var Air ViewBlockData = Vanilla{State: "minecraft:air"}

// Vanilla is a ViewBlockData backed by a stock game block state. Hardness
// is looked up from the host-supplied material table; vanilla blocks are
// never resumable by default.
type Vanilla struct {
	State string
	// HardnessOverride, when non-nil, takes precedence over a
	// WorldHost.MaterialHardness lookup. Most vanilla blocks rely on the
	// host's material table instead of setting this.
	HardnessOverride *float64
	// PreferredToolName, if set, names the single tool type with an
	// efficiency bonus; empty means no preference.
	PreferredToolName string
}

func (v Vanilla) Serialize() string { return "vanilla:" + v.State }
func (v Vanilla) Material() string  { return v.State }
func (v Vanilla) Hardness() float64 {
	if v.HardnessOverride != nil {
		return *v.HardnessOverride
	}
	return 0
}
func (v Vanilla) Resumable() bool { return false }
func (v Vanilla) PreferredTool(tool string) bool {
	return v.PreferredToolName != "" && v.PreferredToolName == tool
}
func (v Vanilla) ToWireState() any { return v.State }

// Custom is a ViewBlockData for a block with no vanilla analogue: hardness,
// resumability, and harvest eligibility are all supplied directly rather
// than looked up from a material table.
type Custom struct {
	MaterialName string
	HardnessValue float64
	ResumableValue bool
	// HarvestableBy, if non-nil, is the predicate Custom.PreferredTool
	// reports for a given tool; a nil func makes PreferredTool report true
	// for every tool. No operation in this package refuses a dig or a
	// break based on it.
	HarvestableBy func(tool string) bool
	// WireState is returned verbatim by ToWireState; it is typically a
	// host-specific block-state handle assembled by the caller.
	WireState any
}

func (c Custom) Serialize() string {
	return fmt.Sprintf("custom:%s:%.4f:%v", c.MaterialName, c.HardnessValue, c.ResumableValue)
}
func (c Custom) Material() string  { return c.MaterialName }
func (c Custom) Hardness() float64 { return c.HardnessValue }
func (c Custom) Resumable() bool   { return c.ResumableValue }
func (c Custom) PreferredTool(tool string) bool {
	return c.HarvestableBy == nil || c.HarvestableBy(tool)
}
func (c Custom) ToWireState() any {
	if c.WireState != nil {
		return c.WireState
	}
	return c.MaterialName
}
