package blockview

import (
	"sync"

	"github.com/google/uuid"
)

// ViewManager is the chunk-indexed registry of every BlockView in a
// process: it maps each world chunk to the set of overlapping views and
// each player to the set of views currently visible to them. There is
// normally one ViewManager per running server, created once at start. It
// has no clearing operation, and Engine.Stop leaves its indices in place;
// views leave it only through Unregister.
type ViewManager struct {
	mu sync.RWMutex

	viewsByID map[uuid.UUID]*BlockView
	// chunkIndex maps a chunk key to the ids of every view overlapping it.
	chunkIndex map[ChunkKey]map[uuid.UUID]struct{}
	// playerVisibility maps a player to the ids of every view currently
	// visible to them.
	playerVisibility map[PlayerID]map[uuid.UUID]struct{}
}

// NewViewManager creates an empty ViewManager.
func NewViewManager() *ViewManager {
	return &ViewManager{
		viewsByID:        make(map[uuid.UUID]*BlockView),
		chunkIndex:       make(map[ChunkKey]map[uuid.UUID]struct{}),
		playerVisibility: make(map[PlayerID]map[uuid.UUID]struct{}),
	}
}

// Register indexes view by every chunk its bounding box overlaps. Fails
// with ErrIsPlaceholder for placeholder views, or ErrDuplicateView if the
// id is already registered.
func (m *ViewManager) Register(view *BlockView) error {
	if view.Type == Placeholder {
		return ErrIsPlaceholder
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.viewsByID[view.ID]; exists {
		return ErrDuplicateView
	}

	m.viewsByID[view.ID] = view
	for _, ck := range view.chunkKeys() {
		set, ok := m.chunkIndex[ck]
		if !ok {
			set = make(map[uuid.UUID]struct{})
			m.chunkIndex[ck] = set
		}
		set[view.ID] = struct{}{}
	}
	return nil
}

// Unregister removes view from the chunk index and every player's
// visibility set. It does not reset any audience's client-side overlay;
// callers that want that must call view.Reset themselves first.
func (m *ViewManager) Unregister(view *BlockView) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.viewsByID, view.ID)
	for _, ck := range view.chunkKeys() {
		set, ok := m.chunkIndex[ck]
		if !ok {
			continue
		}
		delete(set, view.ID)
		if len(set) == 0 {
			delete(m.chunkIndex, ck)
		}
	}
	for _, set := range m.playerVisibility {
		delete(set, view.ID)
	}
}

// AddPlayerToView adds player to view's audience set and to the manager's
// visibility index, then applies the view's overrides to them.
func (m *ViewManager) AddPlayerToView(player PlayerID, view *BlockView) error {
	if view.Type == Placeholder {
		return ErrIsPlaceholder
	}
	if err := view.AddAudience(Player(player), true); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.playerVisibility[player]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		m.playerVisibility[player] = set
	}
	set[view.ID] = struct{}{}
	return nil
}

// RemovePlayerFromView removes player from view's audience set and the
// manager's visibility index, resetting their client-side overlay.
func (m *ViewManager) RemovePlayerFromView(player PlayerID, view *BlockView) error {
	if view.Type == Placeholder {
		return ErrIsPlaceholder
	}
	if err := view.RemoveAudience(Player(player), true); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if set, ok := m.playerVisibility[player]; ok {
		delete(set, view.ID)
		if len(set) == 0 {
			delete(m.playerVisibility, player)
		}
	}
	return nil
}

// ViewsInChunk returns every view overlapping chunk.
func (m *ViewManager) ViewsInChunk(chunk ChunkKey) []*BlockView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.chunkIndex[chunk]
	if !ok {
		return nil
	}
	out := make([]*BlockView, 0, len(ids))
	for id := range ids {
		if v, ok := m.viewsByID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// ViewsInChunkForPlayer returns every view overlapping chunk that is also
// visible to player.
func (m *ViewManager) ViewsInChunkForPlayer(player PlayerID, chunk ChunkKey) []*BlockView {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, ok := m.chunkIndex[chunk]
	if !ok {
		return nil
	}
	visible := m.playerVisibility[player]

	var out []*BlockView
	for id := range ids {
		if _, ok := visible[id]; !ok {
			continue
		}
		if v, ok := m.viewsByID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// ViewsContainingBlock looks up the chunk enclosing (x, y, z) and filters
// the overlapping views to those whose bounding box actually contains the
// position.
func (m *ViewManager) ViewsContainingBlock(world WorldID, x, y, z int) []*BlockView {
	pos := BlockPosition{World: world, X: x, Y: y, Z: z}
	candidates := m.ViewsInChunk(pos.Chunk())

	out := make([]*BlockView, 0, len(candidates))
	for _, v := range candidates {
		if v.IsInside(pos) {
			out = append(out, v)
		}
	}
	return out
}

// ViewsVisibleToPlayerContainingBlock intersects ViewsContainingBlock with
// the set of views visible to player.
func (m *ViewManager) ViewsVisibleToPlayerContainingBlock(player PlayerID, world WorldID, x, y, z int) []*BlockView {
	pos := BlockPosition{World: world, X: x, Y: y, Z: z}

	m.mu.RLock()
	visible := m.playerVisibility[player]
	ids, ok := m.chunkIndex[pos.Chunk()]
	if !ok || visible == nil {
		m.mu.RUnlock()
		return nil
	}
	var candidateIDs []uuid.UUID
	for id := range ids {
		if _, ok := visible[id]; ok {
			candidateIDs = append(candidateIDs, id)
		}
	}
	views := make([]*BlockView, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		if v, ok := m.viewsByID[id]; ok {
			views = append(views, v)
		}
	}
	m.mu.RUnlock()

	out := make([]*BlockView, 0, len(views))
	for _, v := range views {
		if v.IsInside(pos) {
			out = append(out, v)
		}
	}
	return out
}

// View returns the registered view with the given id.
func (m *ViewManager) View(id uuid.UUID) (*BlockView, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.viewsByID[id]
	return v, ok
}

// AllViews returns every currently registered view.
func (m *ViewManager) AllViews() []*BlockView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*BlockView, 0, len(m.viewsByID))
	for _, v := range m.viewsByID {
		out = append(out, v)
	}
	return out
}

// HandlePlayerLeave forcibly ends every dig session the player owns
// across every registered view and clears them from every visibility set,
// without resetting their (now disconnected) client.
func (m *ViewManager) HandlePlayerLeave(player PlayerID) {
	for _, v := range m.AllViews() {
		v.DigManager().Stop(player)
	}

	m.mu.Lock()
	delete(m.playerVisibility, player)
	m.mu.Unlock()
}
