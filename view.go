package blockview

import (
	"sync"

	"github.com/google/uuid"
)

type relKey struct{ x, y, z int }

// BlockView is a rectangular, world-anchored volume storing per-cell block
// overrides and the set of players that currently perceive them. Every
// mutation flows through the view's EventBus and Dispatcher; the view
// never mutates authoritative world state.
type BlockView struct {
	ID      uuid.UUID
	World   WorldID
	Type    ViewType
	Options ViewOptions
	OwnerID *PlayerID

	bounds   bounds
	registry *BlockDataRegistry
	dig      *DigManager

	events     *EventBus
	dispatcher *Dispatcher
	worldHost  WorldHost
	playerHost PlayerHost

	mu        sync.RWMutex
	overrides map[relKey]int32
	audiences map[string]Audience
}

// NewBlockView constructs a BlockView. w, h, d must each be positive; this
// is a programmer-error invariant and panics rather than returning an
// error, matching the source's constructor-time assertions.
func NewBlockView(id uuid.UUID, world WorldID, origin BlockPosition, w, h, d int, typ ViewType, registry *BlockDataRegistry, events *EventBus, dispatcher *Dispatcher, worldHost WorldHost, playerHost PlayerHost, opts ...ViewOption) *BlockView {
	if w <= 0 || h <= 0 || d <= 0 {
		panic("blockview: view dimensions must be positive")
	}

	options := defaultViewOptions()
	for _, opt := range opts {
		opt(&options)
	}

	v := &BlockView{
		ID:         id,
		World:      world,
		Type:       typ,
		Options:    options,
		bounds:     newBounds(origin, w, h, d),
		registry:   registry,
		events:     events,
		dispatcher: dispatcher,
		worldHost:  worldHost,
		playerHost: playerHost,
		overrides:  make(map[relKey]int32),
		audiences:  make(map[string]Audience),
	}
	v.dig = newDigManager(v)
	return v
}

// Origin returns the view's minimum-coordinate corner.
func (v *BlockView) Origin() BlockPosition { return v.bounds.origin }

// Dimensions returns the view's (w, h, d) extent in blocks.
func (v *BlockView) Dimensions() (int, int, int) { return v.bounds.w, v.bounds.h, v.bounds.d }

// DigManager returns the view's owned per-cell destruction tracker.
func (v *BlockView) DigManager() *DigManager { return v.dig }

// IsInside reports whether pos satisfies the view's half-open bounding box.
func (v *BlockView) IsInside(pos BlockPosition) bool { return v.bounds.contains(pos) }

func (v *BlockView) relKeyOf(pos BlockPosition) relKey {
	rx, ry, rz := v.bounds.relative(pos)
	return relKey{rx, ry, rz}
}

// chunkKeys returns every ChunkKey overlapped by the view's bounding box.
func (v *BlockView) chunkKeys() []ChunkKey { return v.bounds.chunks() }

// Get returns the override at pos, or (nil, false) if pos carries none or
// lies outside the view.
func (v *BlockView) Get(pos BlockPosition) (ViewBlockData, bool) {
	if !v.bounds.contains(pos) {
		return nil, false
	}
	v.mu.RLock()
	id, ok := v.overrides[v.relKeyOf(pos)]
	v.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return v.registry.Lookup(id)
}

// IsManaged reports whether an override exists at pos.
func (v *BlockView) IsManaged(pos BlockPosition) bool {
	_, ok := v.Get(pos)
	return ok
}

// IsOriginalContent reports whether pos is inside the view but carries no
// override, i.e. the authoritative world still shows through.
func (v *BlockView) IsOriginalContent(pos BlockPosition) bool {
	return v.bounds.contains(pos) && !v.IsManaged(pos)
}

// Set writes an override at pos. With emitEvent it fires a non-cancellable
// ViewBlockSet notification after the write commits, then sends a
// block-change packet to every current viewer.
func (v *BlockView) Set(pos BlockPosition, data ViewBlockData, emitEvent bool) error {
	if !v.bounds.contains(pos) {
		return withPos(ErrOutOfBounds, pos)
	}
	id, err := v.registry.Intern(data)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.overrides[v.relKeyOf(pos)] = id
	v.mu.Unlock()

	if emitEvent && v.events != nil {
		v.events.dispatchSet(&ViewBlockSet{View: v, Pos: pos, Data: data})
	}

	packet := v.dispatcher.sink.BlockChange(pos, data.ToWireState())
	for _, p := range v.Viewers() {
		v.dispatcher.enqueue(p, pos, kindBlockChange, packet)
	}
	return nil
}

// SetMany batch-writes overrides, coalescing the resulting packets into one
// multi-block-change payload per affected chunk.
func (v *BlockView) SetMany(writes map[BlockPosition]ViewBlockData, emitEvents bool) error {
	for pos := range writes {
		if !v.bounds.contains(pos) {
			return withPos(ErrOutOfBounds, pos)
		}
	}

	byChunk := make(map[ChunkKey]map[BlockPosition]any)
	for pos, data := range writes {
		id, err := v.registry.Intern(data)
		if err != nil {
			return err
		}

		v.mu.Lock()
		v.overrides[v.relKeyOf(pos)] = id
		v.mu.Unlock()

		if emitEvents && v.events != nil {
			v.events.dispatchSet(&ViewBlockSet{View: v, Pos: pos, Data: data})
		}

		ck := pos.Chunk()
		if byChunk[ck] == nil {
			byChunk[ck] = make(map[BlockPosition]any)
		}
		byChunk[ck][pos] = data.ToWireState()
	}

	viewers := v.Viewers()
	for ck, changes := range byChunk {
		packet := v.dispatcher.sink.BlockChangeMulti(ck, changes)
		for _, p := range viewers {
			v.dispatcher.enqueueUnkeyed(p, packet)
		}
	}
	return nil
}

// BreakBlock emits a cancellable ViewBlockBreak event for the override at
// pos (original defaults to the current override, output defaults to Air)
// and, if not cancelled, commits the output, optionally plays a break
// animation, and clears any dig record at pos.
//
// If pos carries no override, BreakBlock consults UnmanagedBlockBehavior:
// CANCEL rejects the break as ErrCancelled, ALLOW treats it as a no-op
// ErrNoSuchBlock the caller can safely ignore.
func (v *BlockView) BreakBlock(player PlayerID, pos BlockPosition, playAnimation, emitEvent bool, trigger TriggerSource) error {
	if v.Options.BreakMode == BreakDisabled {
		return ErrCancelled
	}

	original, managed := v.Get(pos)
	if !managed {
		if v.Options.UnmanagedBlockBehavior == UnmanagedCancel {
			return ErrCancelled
		}
		return ErrNoSuchBlock
	}

	output := Air
	if emitEvent && v.events != nil {
		ev := &ViewBlockBreak{View: v, Player: player, Pos: pos, Original: original, Output: output, TriggerSource: trigger}
		if v.events.dispatchBreak(ev) {
			v.RefreshBlock(Player(player), pos)
			return ErrCancelled
		}
		output = ev.Output
	}

	if err := v.Set(pos, output, false); err != nil {
		return err
	}

	if playAnimation {
		if rec, ok := v.dig.peekRecord(pos); ok {
			v.SetBlockProgress(rec.EntityID, pos, 9)
		}
	}

	v.dig.clearRecord(pos)
	return nil
}

// RefreshBlock re-sends the current override at pos (or a clear, if pos
// carries none) to aud only, rolling back whatever the client's overlay
// currently shows without touching any other viewer.
func (v *BlockView) RefreshBlock(aud Audience, pos BlockPosition) {
	data, ok := v.Get(pos)
	var wire any
	if ok {
		wire = data.ToWireState()
	}
	packet := v.dispatcher.sink.BlockChange(pos, wire)
	for _, p := range aud.Players(v.playerHost) {
		v.dispatcher.enqueue(p, pos, kindBlockChange, packet)
	}
}

// Apply bulk-sends every override to aud, one section packet per occupied
// chunk in the view's bounding box.
func (v *BlockView) Apply(aud Audience) {
	for _, ck := range v.bounds.chunks() {
		v.applyChunk(aud, ck)
	}
}

// ApplyChunk bulk-sends the overrides of a single chunk to aud.
func (v *BlockView) ApplyChunk(aud Audience, cx, cz int) {
	v.applyChunk(aud, ChunkKey{World: v.World, CX: cx, CZ: cz})
}

func (v *BlockView) applyChunk(aud Audience, ck ChunkKey) {
	changes := make(map[BlockPosition]any)

	v.mu.RLock()
	for rk, id := range v.overrides {
		pos := v.bounds.world_(rk.x, rk.y, rk.z)
		if pos.Chunk() != ck {
			continue
		}
		if data, ok := v.registry.Lookup(id); ok {
			changes[pos] = data.ToWireState()
		}
	}
	v.mu.RUnlock()

	if v.Options.UnmanagedBlockBehavior == UnmanagedCancel {
		for _, pos := range v.cellsInChunk(ck) {
			if _, managed := changes[pos]; !managed && !v.IsManaged(pos) {
				changes[pos] = nil
			}
		}
	}

	if len(changes) == 0 {
		return
	}
	packet := v.dispatcher.sink.BlockChangeMulti(ck, changes)
	for _, p := range aud.Players(v.playerHost) {
		v.dispatcher.enqueueUnkeyed(p, packet)
	}
}

// Reset sends the authoritative world state for every cell in the view's
// bounding box to aud, removing the client-side overlay entirely.
func (v *BlockView) Reset(aud Audience) {
	for _, ck := range v.bounds.chunks() {
		v.resetChunk(aud, ck)
	}
}

// ResetChunk resets a single chunk's worth of cells for aud.
func (v *BlockView) ResetChunk(aud Audience, cx, cz int) {
	v.resetChunk(aud, ChunkKey{World: v.World, CX: cx, CZ: cz})
}

func (v *BlockView) resetChunk(aud Audience, ck ChunkKey) {
	changes := make(map[BlockPosition]any)
	for _, pos := range v.cellsInChunk(ck) {
		changes[pos] = nil
	}
	if len(changes) == 0 {
		return
	}
	packet := v.dispatcher.sink.BlockChangeMulti(ck, changes)
	for _, p := range aud.Players(v.playerHost) {
		v.dispatcher.enqueueUnkeyed(p, packet)
	}
}

// cellsInChunk enumerates every absolute position of the view's bounding
// box that falls in chunk ck.
func (v *BlockView) cellsInChunk(ck ChunkKey) []BlockPosition {
	var out []BlockPosition
	o := v.bounds.origin
	for rx := 0; rx < v.bounds.w; rx++ {
		for rz := 0; rz < v.bounds.d; rz++ {
			x, z := o.X+rx, o.Z+rz
			if floorDiv16(x) != ck.CX || floorDiv16(z) != ck.CZ {
				continue
			}
			for ry := 0; ry < v.bounds.h; ry++ {
				out = append(out, BlockPosition{World: v.World, X: x, Y: o.Y + ry, Z: z})
			}
		}
	}
	return out
}

// AddAudience registers a as a viewer. With apply, the view's current
// overrides are immediately bulk-sent to it.
func (v *BlockView) AddAudience(a Audience, apply bool) error {
	if v.Type == Placeholder {
		return ErrIsPlaceholder
	}
	v.mu.Lock()
	v.audiences[a.Key()] = a
	v.mu.Unlock()
	if apply {
		v.Apply(a)
	}
	return nil
}

// RemoveAudience unregisters a. With reset, the authoritative world state
// is sent to it so its client-side overlay is cleared in the same
// operation.
func (v *BlockView) RemoveAudience(a Audience, reset bool) error {
	if v.Type == Placeholder {
		return ErrIsPlaceholder
	}
	v.mu.Lock()
	delete(v.audiences, a.Key())
	v.mu.Unlock()
	if reset {
		v.Reset(a)
	}
	return nil
}

// Viewers returns the flattened, deduplicated set of players currently
// resolved from every registered audience.
func (v *BlockView) Viewers() []PlayerID {
	v.mu.RLock()
	auds := make([]Audience, 0, len(v.audiences))
	for _, a := range v.audiences {
		auds = append(auds, a)
	}
	v.mu.RUnlock()

	seen := make(map[PlayerID]struct{})
	var out []PlayerID
	for _, a := range auds {
		for _, p := range a.Players(v.playerHost) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// SetBlockProgress emits a destruction-stage packet for entityID at pos.
// stage is clamped to [-1, 9]; -1 clears the overlay.
func (v *BlockView) SetBlockProgress(entityID int32, pos BlockPosition, stage int) {
	if stage < -1 {
		stage = -1
	} else if stage > 9 {
		stage = 9
	}
	packet := v.dispatcher.sink.DestructionStage(pos, entityID, stage)
	for _, p := range v.Viewers() {
		v.dispatcher.enqueue(p, pos, kindDestructionStage, packet)
	}
}

// Copy produces a new view with the same override contents anchored at
// newOrigin, with a fresh id.
func (v *BlockView) Copy(newOrigin BlockPosition, typ ViewType) *BlockView {
	nv := NewBlockView(uuid.New(), v.World, newOrigin, v.bounds.w, v.bounds.h, v.bounds.d, typ, v.registry, v.events, v.dispatcher, v.worldHost, v.playerHost)
	nv.Options = v.Options

	v.mu.RLock()
	defer v.mu.RUnlock()
	for rk, id := range v.overrides {
		nv.overrides[rk] = id
	}
	return nv
}

// RelativePosition converts an absolute position inside the view to its
// (rx, ry, rz) triple. ok is false if pos is outside the view.
func (v *BlockView) RelativePosition(pos BlockPosition) (rx, ry, rz int, ok bool) {
	if !v.bounds.contains(pos) {
		return 0, 0, 0, false
	}
	rx, ry, rz = v.bounds.relative(pos)
	return rx, ry, rz, true
}

// WorldPosition converts a relative (rx, ry, rz) triple back to an
// absolute position anchored at the view's origin.
func (v *BlockView) WorldPosition(rx, ry, rz int) BlockPosition {
	return v.bounds.world_(rx, ry, rz)
}

// NearbyBlocks returns every managed cell within radius blocks (a bounded
// spherical scan, Euclidean distance) of center.
func (v *BlockView) NearbyBlocks(center BlockPosition, radius int) []BlockPosition {
	r2 := radius * radius
	var out []BlockPosition

	v.mu.RLock()
	defer v.mu.RUnlock()
	for rk := range v.overrides {
		pos := v.bounds.world_(rk.x, rk.y, rk.z)
		dx, dy, dz := pos.X-center.X, pos.Y-center.Y, pos.Z-center.Z
		if dx*dx+dy*dy+dz*dz <= r2 {
			out = append(out, pos)
		}
	}
	return out
}
