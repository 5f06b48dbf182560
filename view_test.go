package blockview

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWorld WorldID = "world-1"

func newTestView(t *testing.T, origin BlockPosition, w, h, d int, opts ...ViewOption) (*BlockView, *fakeSink, *fakePlayerHost) {
	t.Helper()
	sink := newFakeSink()
	players := newFakePlayerHost()
	registry := NewBlockDataRegistry()
	events := NewEventBus()
	dispatcher := NewDispatcher(sink)
	worldHost := newFakeWorldHost()

	v := NewBlockView(uuid.New(), origin.World, origin, w, h, d, Persistent, registry, events, dispatcher, worldHost, players, opts...)
	return v, sink, players
}

func TestViewOverrideRoundTrip(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, _, _ := newTestView(t, origin, 4, 4, 4)

	pos := Pos(testWorld, 1, 2, 3)
	data := Vanilla{State: "minecraft:stone"}

	require.NoError(t, v.Set(pos, data, false))
	got, ok := v.Get(pos)
	require.True(t, ok)
	assert.Equal(t, data.Serialize(), got.Serialize())
}

func TestViewSetOutOfBounds(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, _, _ := newTestView(t, origin, 2, 2, 2)

	err := v.Set(Pos(testWorld, 10, 10, 10), Vanilla{State: "minecraft:stone"}, false)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestViewIsManagedAndOriginalContent(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, _, _ := newTestView(t, origin, 2, 2, 2)

	pos := Pos(testWorld, 0, 0, 0)
	assert.False(t, v.IsManaged(pos))
	assert.True(t, v.IsOriginalContent(pos))

	require.NoError(t, v.Set(pos, Vanilla{State: "minecraft:stone"}, false))
	assert.True(t, v.IsManaged(pos))
	assert.False(t, v.IsOriginalContent(pos))
}

func TestViewSetEmitsBlockChangeToViewer(t *testing.T) {
	origin := Pos(testWorld, 100, 64, 200)
	v, sink, players := newTestView(t, origin, 3, 3, 3)

	players.addOnline("p1", testWorld)
	require.NoError(t, v.AddAudience(Player("p1"), false))

	pos := Pos(testWorld, 101, 64, 201)
	require.NoError(t, v.Set(pos, Vanilla{State: "minecraft:stone"}, true))

	v.dispatcher.Flush(players)
	sent := sink.snapshot()
	require.Len(t, sent, 1)
	require.Equal(t, "bundle", sent[0].packet.kind)
	require.Len(t, sent[0].packet.bundled, 1)
	inner := sent[0].packet.bundled[0].(sentPacket)
	assert.Equal(t, "blockchange", inner.kind)
	assert.Equal(t, pos, inner.pos)
}

func TestViewAudienceSymmetry(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, sink, players := newTestView(t, origin, 2, 2, 2)
	players.addOnline("p1", testWorld)

	require.NoError(t, v.Set(Pos(testWorld, 0, 0, 0), Vanilla{State: "minecraft:stone"}, false))

	require.NoError(t, v.AddAudience(Player("p1"), true))
	v.dispatcher.Flush(players)
	addSent := len(sink.snapshot())
	sink.sent = nil

	require.NoError(t, v.RemoveAudience(Player("p1"), true))
	v.dispatcher.Flush(players)
	removeSent := len(sink.snapshot())

	assert.Equal(t, addSent, removeSent)
	assert.Greater(t, addSent, 0)
}

func TestViewPlaceholderRejectsAudience(t *testing.T) {
	sink := newFakeSink()
	players := newFakePlayerHost()
	registry := NewBlockDataRegistry()
	events := NewEventBus()
	dispatcher := NewDispatcher(sink)
	worldHost := newFakeWorldHost()

	origin := Pos(testWorld, 0, 0, 0)
	v := NewBlockView(uuid.New(), testWorld, origin, 1, 1, 1, Placeholder, registry, events, dispatcher, worldHost, players)

	err := v.AddAudience(Player("p1"), false)
	assert.ErrorIs(t, err, ErrIsPlaceholder)
}

func TestViewBreakBlockCancellation(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, sink, players := newTestView(t, origin, 2, 2, 2)
	players.addOnline("p1", testWorld)
	require.NoError(t, v.AddAudience(Player("p1"), false))

	pos := Pos(testWorld, 0, 0, 0)
	original := Vanilla{State: "minecraft:stone"}
	require.NoError(t, v.Set(pos, original, false))

	v.events.OnBlockBreak(func(e *ViewBlockBreak) { e.Cancel() })

	err := v.BreakBlock("p1", pos, false, true, TriggerPlayer)
	assert.ErrorIs(t, err, ErrCancelled)

	// the override must be unchanged, and a refresh packet issued as rollback.
	got, ok := v.Get(pos)
	require.True(t, ok)
	assert.Equal(t, original.Serialize(), got.Serialize())

	v.dispatcher.Flush(players)
	sent := sink.snapshot()
	require.NotEmpty(t, sent)
	last := sent[len(sent)-1].packet
	require.Equal(t, "bundle", last.kind)
	require.NotEmpty(t, last.bundled)
	innerLast := last.bundled[len(last.bundled)-1].(sentPacket)
	assert.Equal(t, "blockchange", innerLast.kind)
}

func TestViewBreakBlockCommitsOutput(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, _, _ := newTestView(t, origin, 2, 2, 2)

	pos := Pos(testWorld, 0, 0, 0)
	require.NoError(t, v.Set(pos, Vanilla{State: "minecraft:stone"}, false))

	var seenOriginal, seenOutput ViewBlockData
	v.events.OnBlockBreak(func(e *ViewBlockBreak) {
		seenOriginal = e.Original
		seenOutput = e.Output
	})

	require.NoError(t, v.BreakBlock("p1", pos, false, true, TriggerPlayer))

	assert.Equal(t, "minecraft:stone", seenOriginal.Material())
	assert.Equal(t, Air.Serialize(), seenOutput.Serialize())

	got, ok := v.Get(pos)
	require.True(t, ok)
	assert.Equal(t, Air.Serialize(), got.Serialize())
}

func TestViewCopyPreservesOverrides(t *testing.T) {
	origin := Pos(testWorld, 0, 0, 0)
	v, _, _ := newTestView(t, origin, 2, 2, 2)

	pos := Pos(testWorld, 1, 1, 1)
	require.NoError(t, v.Set(pos, Vanilla{State: "minecraft:stone"}, false))

	newOrigin := Pos(testWorld, 10, 10, 10)
	copied := v.Copy(newOrigin, Transient)

	assert.NotEqual(t, v.ID, copied.ID)
	got, ok := copied.Get(Pos(testWorld, 11, 11, 11))
	require.True(t, ok)
	assert.Equal(t, "minecraft:stone", got.Material())
}
