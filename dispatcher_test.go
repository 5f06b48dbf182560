package blockview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherEnqueueDedupesByViewerPosKind(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink)
	players := newFakePlayerHost()
	players.addOnline("p1", testWorld)

	pos := Pos(testWorld, 1, 2, 3)
	d.enqueue("p1", pos, kindBlockChange, sink.BlockChange(pos, "minecraft:stone"))
	d.enqueue("p1", pos, kindBlockChange, sink.BlockChange(pos, "minecraft:dirt"))

	d.Flush(players)

	sent := sink.snapshot()
	require.Len(t, sent, 1)
	require.Len(t, sent[0].packet.bundled, 1)
	inner := sent[0].packet.bundled[0].(sentPacket)
	assert.Equal(t, "minecraft:dirt", inner.state, "the later enqueue for the same key must win")
}

func TestDispatcherEnqueueDistinctKindsDoNotCollapse(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink)
	players := newFakePlayerHost()
	players.addOnline("p1", testWorld)

	pos := Pos(testWorld, 1, 2, 3)
	d.enqueue("p1", pos, kindBlockChange, sink.BlockChange(pos, "minecraft:stone"))
	d.enqueue("p1", pos, kindDestructionStage, sink.DestructionStage(pos, -5, 3))

	d.Flush(players)

	sent := sink.snapshot()
	require.Len(t, sent, 1)
	assert.Len(t, sent[0].packet.bundled, 2)
}

func TestDispatcherFlushFiltersOfflineViewers(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink)
	players := newFakePlayerHost()
	players.addOnline("p1", testWorld)

	pos := Pos(testWorld, 0, 0, 0)
	d.enqueue("p1", pos, kindBlockChange, sink.BlockChange(pos, "minecraft:stone"))
	d.enqueue("p2", pos, kindBlockChange, sink.BlockChange(pos, "minecraft:stone"))

	d.Flush(players)

	sent := sink.snapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, PlayerID("p1"), sent[0].conn)
}

func TestDispatcherFlushClearsPendingState(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink)
	players := newFakePlayerHost()
	players.addOnline("p1", testWorld)

	pos := Pos(testWorld, 0, 0, 0)
	d.enqueue("p1", pos, kindBlockChange, sink.BlockChange(pos, "minecraft:stone"))
	d.Flush(players)
	require.Len(t, sink.snapshot(), 1)

	// nothing queued the second time; Flush must be a true no-op.
	d.Flush(players)
	assert.Len(t, sink.snapshot(), 1)
}

func TestDispatcherEnqueueUnkeyedAlwaysAppends(t *testing.T) {
	sink := newFakeSink()
	d := NewDispatcher(sink)
	players := newFakePlayerHost()
	players.addOnline("p1", testWorld)

	ck := ChunkKey{World: testWorld, CX: 0, CZ: 0}
	changes := map[BlockPosition]any{Pos(testWorld, 0, 0, 0): "minecraft:stone"}
	d.enqueueUnkeyed("p1", sink.BlockChangeMulti(ck, changes))
	d.enqueueUnkeyed("p1", sink.BlockChangeMulti(ck, changes))

	d.Flush(players)

	sent := sink.snapshot()
	require.Len(t, sent, 1)
	assert.Len(t, sent[0].packet.bundled, 2)
}
