// Package blockview implements a server-authoritative client-side block
// view engine: it synthesises virtual block overrides into each player's
// world view via a host-supplied packet boundary, without ever mutating
// the authoritative world. The package is framework-agnostic — it depends
// on no specific networking or world library, only the collaborator
// contracts declared in hosts.go.
//
// # Quick start
//
// A host wires the engine once at startup:
//
//	registry := blockview.NewBlockDataRegistry()
//	events := blockview.NewEventBus()
//	engine := blockview.NewEngine(registry, events, mySink, myWorldHost, myPlayerHost, myScheduler)
//	engine.Start()
//
//	view, err := engine.NewView(uuid.New(), worldID, blockview.Pos(worldID, 100, 64, 200), 3, 3, 3, blockview.Persistent)
//	engine.Views.AddPlayerToView(playerID, view)
//	view.Set(blockview.Pos(worldID, 101, 64, 201), blockview.Vanilla{State: "minecraft:stone"}, true)
//
// # Components
//
//   - BlockDataRegistry interns ViewBlockData values to compact 16-bit ids.
//   - BlockView stores per-cell overrides for a rectangular, world-anchored
//     volume and exposes the read/write/break/refresh surface.
//   - ViewManager is the chunk-indexed registry of every view in a process.
//   - DigManager and DigSession drive per-player, per-cell destruction
//     progress with resumable state across cancellations.
//   - EventBus dispatches cancellable, synchronous notifications in
//     registration order.
//   - Dispatcher collects outgoing packets per tick and delivers one
//     bundled frame per viewer.
package blockview
