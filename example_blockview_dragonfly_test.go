//go:build dragonfly_example

package blockview_test

// This file sketches a thin adapter wiring the engine's four collaborator
// contracts (hosts.go) onto github.com/df-mc/dragonfly, the framework the
// rest of this repository's idiom is drawn from. It is gated behind a build
// tag: the core package never imports Dragonfly (see hosts.go), and this
// file exists only to show what a real host implementation looks like, not
// to be exercised by `go test ./...`.

import (
	"sync"
	"time"

	"github.com/df-mc/dragonfly/server/block/cube"
	"github.com/df-mc/dragonfly/server/player"
	"github.com/df-mc/dragonfly/server/world"

	"github.com/orium-labs/blockview"
)

// cubePosToBlockPosition converts a Dragonfly block-column coordinate into
// the engine's world-scoped BlockPosition.
func cubePosToBlockPosition(id blockview.WorldID, pos cube.Pos) blockview.BlockPosition {
	return blockview.Pos(id, pos.X(), pos.Y(), pos.Z())
}

// blockPositionToCubePos is the inverse of cubePosToBlockPosition.
func blockPositionToCubePos(pos blockview.BlockPosition) cube.Pos {
	return cube.Pos{pos.X, pos.Y, pos.Z}
}

// dragonflyWorldHost answers blockview.WorldHost against a live world.Tx.
// A real deployment would resolve hardness from Dragonfly's block registry;
// here it stands in for that lookup with a small illustrative table.
type dragonflyWorldHost struct {
	tx        *world.Tx
	hardness  map[string]float64
}

func (h *dragonflyWorldHost) Chunk(_ blockview.WorldID, cx, cz int) (any, bool) {
	c, ok := h.tx.World().Chunk(world.ChunkPos{int32(cx), int32(cz)})
	return c, ok
}

func (h *dragonflyWorldHost) MaterialHardness(material string) (float64, bool) {
	v, ok := h.hardness[material]
	return v, ok
}

// dragonflyPlayerHost answers blockview.PlayerHost against a live world.Tx,
// resolving blockview.PlayerID values (held as the player's XUID string) back
// to *player.Player through the transaction's entity lookup.
type dragonflyPlayerHost struct {
	tx *world.Tx

	mu       sync.Mutex
	onLeave  []func(blockview.PlayerID)
	onJoin   []func(blockview.PlayerID)
	onChange []func(blockview.PlayerID, blockview.WorldID, blockview.WorldID)
}

func (h *dragonflyPlayerHost) lookup(id blockview.PlayerID) (*player.Player, bool) {
	for _, e := range h.tx.Entities() {
		p, ok := e.(*player.Player)
		if ok && blockview.PlayerID(p.XUID()) == id {
			return p, true
		}
	}
	return nil, false
}

func (h *dragonflyPlayerHost) OnlinePlayers() []blockview.PlayerID {
	var ids []blockview.PlayerID
	for _, e := range h.tx.Entities() {
		if p, ok := e.(*player.Player); ok {
			ids = append(ids, blockview.PlayerID(p.XUID()))
		}
	}
	return ids
}

func (h *dragonflyPlayerHost) World(id blockview.PlayerID) (blockview.WorldID, bool) {
	p, ok := h.lookup(id)
	if !ok {
		return "", false
	}
	return blockview.WorldID(p.Tx().World().Name()), true
}

func (h *dragonflyPlayerHost) MainHand(id blockview.PlayerID) string {
	p, ok := h.lookup(id)
	if !ok {
		return ""
	}
	held, _ := p.HeldItems()
	name, _ := held.Item().EncodeItem()
	return name
}

func (h *dragonflyPlayerHost) ArmorSlots(id blockview.PlayerID) []string { return nil }

func (h *dragonflyPlayerHost) Connection(id blockview.PlayerID) blockview.PlayerConnection {
	p, ok := h.lookup(id)
	if !ok {
		return nil
	}
	return p
}

func (h *dragonflyPlayerHost) OnJoin(fn func(blockview.PlayerID)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onJoin = append(h.onJoin, fn)
}

func (h *dragonflyPlayerHost) OnLeave(fn func(blockview.PlayerID)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onLeave = append(h.onLeave, fn)
}

func (h *dragonflyPlayerHost) OnWorldChange(fn func(blockview.PlayerID, blockview.WorldID, blockview.WorldID)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// tickerScheduler implements blockview.Scheduler with a plain time.Ticker
// per registration, standing in for Dragonfly's own internal world tick
// loop (which the engine deliberately does not depend on directly).
type tickerScheduler struct{ tickInterval time.Duration }

type tickerHandle struct{ stop chan struct{} }

func (s *tickerScheduler) ScheduleRepeating(task func(), initialTicks, periodTicks int, async bool) blockview.TaskHandle {
	h := &tickerHandle{stop: make(chan struct{})}
	go func() {
		time.Sleep(time.Duration(initialTicks) * s.tickInterval)
		ticker := time.NewTicker(time.Duration(periodTicks) * s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				task()
			}
		}
	}()
	return h
}

func (s *tickerScheduler) Cancel(handle blockview.TaskHandle) {
	h, ok := handle.(*tickerHandle)
	if !ok {
		return
	}
	close(h.stop)
}

// dragonflySink implements blockview.PacketSink. The core never encodes a
// byte itself (§6); a production Sink would forward these opaque values to
// the player's underlying gophertunnel connection. This example keeps that
// last step as a no-op to avoid pulling the wire-protocol layer into a file
// that exists only to demonstrate the host contract's shape.
type dragonflySink struct{}

type wirePacket struct {
	kind string
	data any
}

func (dragonflySink) SpawnFakeBlockEntity(pos blockview.BlockPosition, entityID int32) blockview.Packet {
	return wirePacket{kind: "spawn", data: [2]any{pos, entityID}}
}

func (dragonflySink) RemoveFakeBlockEntity(pos blockview.BlockPosition, entityID int32) blockview.Packet {
	return wirePacket{kind: "remove", data: [2]any{pos, entityID}}
}

func (dragonflySink) BlockChange(pos blockview.BlockPosition, state any) blockview.Packet {
	return wirePacket{kind: "blockchange", data: [2]any{pos, state}}
}

func (dragonflySink) BlockChangeMulti(chunk blockview.ChunkKey, changes map[blockview.BlockPosition]any) blockview.Packet {
	return wirePacket{kind: "blockchangemulti", data: [2]any{chunk, changes}}
}

func (dragonflySink) DestructionStage(pos blockview.BlockPosition, entityID int32, stage int) blockview.Packet {
	return wirePacket{kind: "stage", data: [3]any{pos, entityID, stage}}
}

func (dragonflySink) Bundle(packets []blockview.Packet) blockview.Packet {
	return wirePacket{kind: "bundle", data: packets}
}

func (dragonflySink) Send(conn blockview.PlayerConnection, packet blockview.Packet) {
	if _, ok := conn.(*player.Player); !ok {
		return
	}
	// A full adapter writes packet's underlying gophertunnel packets to
	// conn's session here.
}
