package blockview

// Audience is a polymorphic packet recipient: either a single player or a
// group that resolves to zero or more players at send time. Views store
// audience membership by Key, so the same logical audience (e.g. "party
// 7") always collapses to one membership entry regardless of how many
// times it is constructed.
type Audience interface {
	// Key uniquely identifies this audience within a view's membership
	// set.
	Key() string
	// Players returns the flattened set of players this audience
	// currently resolves to. Called at send time, never cached by the
	// view.
	Players(host PlayerHost) []PlayerID
}

// Player wraps a single PlayerID as an Audience.
type Player PlayerID

func (p Player) Key() string { return "player:" + string(p) }
func (p Player) Players(PlayerHost) []PlayerID { return []PlayerID{PlayerID(p)} }

// Group is an Audience resolving to a fixed, named set of players. Hosts
// that track dynamic groups (parties, guilds) can implement their own
// Audience instead; Group is the simple static case.
type Group struct {
	Name    string
	Members []PlayerID
}

func (g Group) Key() string { return "group:" + g.Name }
func (g Group) Players(PlayerHost) []PlayerID {
	out := make([]PlayerID, len(g.Members))
	copy(out, g.Members)
	return out
}
