package blockview

// ViewType distinguishes lifecycle/registration semantics for a BlockView.
type ViewType int

const (
	// Transient views are expected to be torn down relatively soon
	// (a temporary preview, an animation).
	Transient ViewType = iota
	// Persistent views live for the lifetime of the owning system.
	Persistent
	// Placeholder views are markers used while a view is still being
	// constructed; the manager rejects registering them or giving them
	// an audience.
	Placeholder
)

func (t ViewType) String() string {
	switch t {
	case Transient:
		return "TRANSIENT"
	case Persistent:
		return "PERSISTENT"
	case Placeholder:
		return "PLACEHOLDER"
	default:
		return "UNKNOWN"
	}
}

// BreakMode governs whether BlockView.BreakBlock is permitted.
type BreakMode int

const (
	// BreakEnabled allows breaking any managed cell.
	BreakEnabled BreakMode = iota
	// BreakDisabled rejects every break attempt with ErrCancelled.
	BreakDisabled
	// BreakNewOnly is accepted as a mode, but BlockView.BreakBlock handles
	// it exactly like BreakEnabled: the view does not record when an
	// override was written, so every managed cell is breakable, including
	// overrides seeded before registration.
	BreakNewOnly
)

// PlaceMode records whether the view permits block placement. It is stored
// in ViewOptions only: no BlockView operation reads it, and Set and SetMany
// write overrides regardless of its value.
type PlaceMode int

const (
	PlaceEnabled PlaceMode = iota
	PlaceDisabled
)

// UnmanagedBlockBehavior governs interactions with cells inside a view's
// bounding box that hold no override.
type UnmanagedBlockBehavior int

const (
	// UnmanagedAllow lets the authoritative world show through unmanaged
	// cells; Apply sends "no change" for them.
	UnmanagedAllow UnmanagedBlockBehavior = iota
	// UnmanagedCancel means clients must never see authoritative blocks
	// inside the view's box; Apply sends explicit clears for unmanaged
	// cells, and BreakBlock on an unmanaged cell is rejected.
	UnmanagedCancel
)

// TriggerSource identifies the cause of a view block break.
type TriggerSource int

const (
	TriggerPlayer TriggerSource = iota
	TriggerEffect
	TriggerCommand
	TriggerScript
)

// IsPlayerTriggered reports whether src represents a direct player action,
// matching the default for a zero-value (unspecified) TriggerSource.
func (src TriggerSource) IsPlayerTriggered() bool {
	return src == TriggerPlayer
}

// ViewOptions bundles a BlockView's configurable behaviour.
type ViewOptions struct {
	BreakMode              BreakMode
	PlaceMode              PlaceMode
	UnmanagedBlockBehavior UnmanagedBlockBehavior
}

func defaultViewOptions() ViewOptions {
	return ViewOptions{
		BreakMode:              BreakEnabled,
		PlaceMode:              PlaceEnabled,
		UnmanagedBlockBehavior: UnmanagedCancel,
	}
}

// ViewOption configures a BlockView at construction time.
type ViewOption func(*ViewOptions)

// WithBreakMode sets the view's break mode.
func WithBreakMode(m BreakMode) ViewOption {
	return func(o *ViewOptions) { o.BreakMode = m }
}

// WithPlaceMode sets the view's place mode.
func WithPlaceMode(m PlaceMode) ViewOption {
	return func(o *ViewOptions) { o.PlaceMode = m }
}

// WithUnmanagedBlockBehavior sets how the view treats cells inside its
// bounding box that carry no override.
func WithUnmanagedBlockBehavior(b UnmanagedBlockBehavior) ViewOption {
	return func(o *ViewOptions) { o.UnmanagedBlockBehavior = b }
}
