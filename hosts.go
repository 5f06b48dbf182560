package blockview

// This file defines the collaborator contracts the engine consumes. They
// are deliberately framework-agnostic: nothing in this package imports a
// concrete world/player/networking library. A real deployment supplies
// adapters over whatever host framework it runs (see
// example_blockview_dragonfly_test.go for one built on
// github.com/df-mc/dragonfly).

// PlayerID opaquely identifies an online player (an XUID, a UUID string,
// whatever the host's identity system produces).
type PlayerID string

// PlayerConnection is an opaque per-player send handle obtained from
// PlayerHost.Connection and passed through to PacketSink.Send unexamined.
type PlayerConnection any

// Packet is an opaque value produced by a PacketSink constructor and
// consumed only by PacketSink.Send or by PacketSink.Bundle. The engine
// never inspects a Packet's contents.
type Packet any

// TaskHandle is an opaque handle returned by Scheduler.ScheduleRepeating,
// passed back to Scheduler.Cancel.
type TaskHandle any

// WorldHost answers questions about chunk loading and block material data
// that the engine cannot know on its own.
type WorldHost interface {
	// Chunk returns the host's opaque chunk handle for (world, cx, cz),
	// and false if that chunk is not currently loaded.
	Chunk(world WorldID, cx, cz int) (chunk any, ok bool)
	// MaterialHardness returns the base mining hardness for a vanilla
	// material name, used by DigSession break-time computation when a
	// Vanilla override does not carry a HardnessOverride.
	MaterialHardness(material string) (float64, bool)
}

// PlayerHost enumerates players and exposes the per-player facts the
// engine needs to resolve audiences and compute dig break speed.
type PlayerHost interface {
	// OnlinePlayers lists every currently connected player.
	OnlinePlayers() []PlayerID
	// World returns the world a player currently occupies.
	World(p PlayerID) (WorldID, bool)
	// MainHand returns a descriptor of the item in a player's main hand,
	// consulted by the tool-speed modifier chain.
	MainHand(p PlayerID) string
	// ArmorSlots returns descriptors for a player's worn armor, consulted
	// by status modifiers (e.g. depth strider affecting underwater dig).
	ArmorSlots(p PlayerID) []string
	// Connection returns the opaque send handle for a player, or nil if
	// the player is not currently connected.
	Connection(p PlayerID) PlayerConnection
	// OnJoin, OnLeave and OnWorldChange register player lifecycle hooks.
	// Multiple registrations are additive; hosts call every registered
	// hook. The engine itself registers only an OnLeave hook (see
	// NewEngine), which ends the leaving player's dig sessions and clears
	// their visibility entries.
	OnJoin(fn func(PlayerID))
	OnLeave(fn func(PlayerID))
	OnWorldChange(fn func(p PlayerID, from, to WorldID))
}

// Scheduler drives the engine's two background tasks (the per-tick dig and
// dispatcher flush, and the coarser DigManager.sync sweep) without the
// engine ever owning a goroutine or a timer itself.
type Scheduler interface {
	// ScheduleRepeating runs task every periodTicks ticks, first firing
	// after initialTicks. If async is true the host may run task off the
	// main tick thread; the engine only requests async for sync(), which
	// touches no shared state the tick domain also writes without a lock.
	ScheduleRepeating(task func(), initialTicks, periodTicks int, async bool) TaskHandle
	// Cancel stops a previously scheduled task. Cancelling an unknown or
	// already-cancelled handle is a no-op.
	Cancel(handle TaskHandle)
}

// PacketSink is the opaque outbound packet boundary. The engine builds
// packets through these constructors and hands them to Send; it never
// encodes a byte itself.
type PacketSink interface {
	SpawnFakeBlockEntity(pos BlockPosition, entityID int32) Packet
	RemoveFakeBlockEntity(pos BlockPosition, entityID int32) Packet
	BlockChange(pos BlockPosition, state any) Packet
	BlockChangeMulti(chunk ChunkKey, changes map[BlockPosition]any) Packet
	DestructionStage(pos BlockPosition, entityID int32, stage int) Packet
	Bundle(packets []Packet) Packet
	// Send delivers packet to conn. Implementations must treat a nil or
	// stale conn as a silent drop, not an error; the engine relies on
	// that to implement "offline players are filtered before dispatch".
	Send(conn PlayerConnection, packet Packet)
}
