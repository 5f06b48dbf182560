package blockview

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Clock abstracts wall-clock time so dig sessions can be driven by a
// virtual clock in tests without sleeping. The default is real time.
type Clock interface {
	NowMs() int64
}

type systemClock struct{}

func (systemClock) NowMs() int64 { return time.Now().UnixMilli() }

// DigRecord tracks partial-destruction state for a single cell within a
// view. A record is retained only while a session is active or LastStage
// is non-negative; DigManager evicts it once both become false.
type DigRecord struct {
	EntityID      int32
	LastDamager   PlayerID
	Session       *DigSession
	AccumulatedMs int64
	LastStage     int
}

// DigManager tracks per-cell destruction state for a single BlockView and
// orchestrates the DigSession state machines that drive it.
type DigManager struct {
	view      *BlockView
	modifiers *ModifierChain
	clock     Clock

	mu      sync.RWMutex
	records map[BlockPosition]*DigRecord

	rngMu sync.Mutex
	rng   *rand.Rand
}

func newDigManager(v *BlockView) *DigManager {
	return &DigManager{
		view:      v,
		modifiers: NewModifierChain(),
		clock:     systemClock{},
		records:   make(map[BlockPosition]*DigRecord),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Modifiers returns the tool-break-speed modifier chain used to compute
// full_break_ms for every session this manager starts.
func (m *DigManager) Modifiers() *ModifierChain { return m.modifiers }

// SetClock overrides the manager's time source; intended for tests.
func (m *DigManager) SetClock(c Clock) { m.clock = c }

// nextEntityID allocates a pseudo-random negative int32, unique among this
// view's current records. Must be called with m.mu held.
func (m *DigManager) nextEntityID() int32 {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()
	for {
		id := -(m.rng.Int31n(math.MaxInt32) + 1)
		collision := false
		for _, rec := range m.records {
			if rec.EntityID == id {
				collision = true
				break
			}
		}
		if !collision {
			return id
		}
	}
}

// Start begins a dig session for player at pos, requiring an existing
// override there. It returns false without error if a session is already
// active for that cell (regardless of who owns it).
func (m *DigManager) Start(player PlayerID, pos BlockPosition, speedMultiplier float64) (bool, error) {
	return m.StartWithContext(player, pos, speedMultiplier, NeutralBreakContext())
}

// StartWithContext is Start with an explicit BreakContext (haste, fatigue,
// environment) instead of the neutral default.
func (m *DigManager) StartWithContext(player PlayerID, pos BlockPosition, speedMultiplier float64, ctx BreakContext) (bool, error) {
	data, ok := m.view.Get(pos)
	if !ok {
		return false, ErrNoSuchBlock
	}

	m.mu.Lock()
	rec, exists := m.records[pos]
	if exists && rec.Session != nil && rec.Session.Active() {
		m.mu.Unlock()
		return false, nil
	}
	if !exists {
		rec = &DigRecord{EntityID: m.nextEntityID(), LastStage: -1}
		m.records[pos] = rec
	}
	rec.LastDamager = player
	m.mu.Unlock()

	tool := ""
	if m.view.playerHost != nil {
		tool = m.view.playerHost.MainHand(player)
	}
	fullBreakMs := m.modifiers.FullBreakMs(data, tool, ctx, m.view.worldHost)

	session := newDigSession(m, pos, rec, player, fullBreakMs, speedMultiplier)
	m.mu.Lock()
	rec.Session = session
	m.mu.Unlock()

	session.start()
	return true, nil
}

// Complete ends the active session at pos as a successful break, but only
// if it belongs to player; otherwise it is a no-op (ErrUnauthorized).
func (m *DigManager) Complete(pos BlockPosition, player PlayerID) error {
	m.mu.RLock()
	rec, ok := m.records[pos]
	m.mu.RUnlock()
	if !ok || rec.Session == nil || !rec.Session.Active() {
		return ErrNoSuchBlock
	}
	if rec.LastDamager != player {
		return ErrUnauthorized
	}
	rec.Session.complete()
	return nil
}

// Cancel ends the active session at pos without breaking the block, but
// only if it belongs to player.
func (m *DigManager) Cancel(pos BlockPosition, player PlayerID) error {
	m.mu.RLock()
	rec, ok := m.records[pos]
	m.mu.RUnlock()
	if !ok || rec.Session == nil || !rec.Session.Active() {
		return ErrNoSuchBlock
	}
	if rec.LastDamager != player {
		return ErrUnauthorized
	}
	rec.Session.cancel()
	return nil
}

// Stop forcibly ends every active session whose LastDamager is player,
// skipping the completion callback entirely. Used on player disconnect.
func (m *DigManager) Stop(player PlayerID) {
	m.mu.RLock()
	var sessions []*DigSession
	for _, rec := range m.records {
		if rec.LastDamager == player && rec.Session != nil && rec.Session.Active() {
			sessions = append(sessions, rec.Session)
		}
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.destroy()
	}
}

// ResetBlock clears the record at pos and sends stage -1 to viewers,
// unless a session is currently active there (in which case it is a
// no-op).
func (m *DigManager) ResetBlock(pos BlockPosition) {
	m.mu.Lock()
	rec, ok := m.records[pos]
	if !ok || (rec.Session != nil && rec.Session.Active()) {
		m.mu.Unlock()
		return
	}
	delete(m.records, pos)
	m.mu.Unlock()

	m.view.SetBlockProgress(rec.EntityID, pos, -1)
}

// SimulatePartialBreak sets the record's progress directly from fraction
// without starting a timer, used to display paused progress (e.g. a
// session resumed from persisted state before the player resumes
// mining). Calling it twice with the same fraction produces the same
// record state as calling it once.
func (m *DigManager) SimulatePartialBreak(player PlayerID, pos BlockPosition, fraction float64) error {
	data, ok := m.view.Get(pos)
	if !ok {
		return ErrNoSuchBlock
	}

	tool := ""
	if m.view.playerHost != nil {
		tool = m.view.playerHost.MainHand(player)
	}
	fullBreakMs := m.modifiers.FullBreakMs(data, tool, NeutralBreakContext(), m.view.worldHost)

	m.mu.Lock()
	rec, exists := m.records[pos]
	if !exists {
		rec = &DigRecord{EntityID: m.nextEntityID(), LastStage: -1}
		m.records[pos] = rec
	}
	rec.LastDamager = player
	rec.AccumulatedMs = int64(fraction * fullBreakMs)
	rec.LastStage = stageForProgress(fraction)
	entityID, stage := rec.EntityID, rec.LastStage
	m.mu.Unlock()

	m.view.SetBlockProgress(entityID, pos, stage)
	return nil
}

// peekRecord returns a snapshot copy of the record at pos, if any.
func (m *DigManager) peekRecord(pos BlockPosition) (DigRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[pos]
	if !ok {
		return DigRecord{}, false
	}
	return *rec, true
}

// clearRecord unconditionally evicts the record at pos, sending a final
// stage -1 if one existed. Used by BlockView.BreakBlock once a break has
// committed.
func (m *DigManager) clearRecord(pos BlockPosition) {
	m.mu.Lock()
	rec, ok := m.records[pos]
	if ok {
		delete(m.records, pos)
	}
	m.mu.Unlock()

	if ok {
		m.view.SetBlockProgress(rec.EntityID, pos, -1)
	}
}

// Sync re-emits the last known stage for every record with no active
// session, recovering viewers from client-side packet loss, and evicts
// records that have decayed to nothing (no progress, no overlay).
// Invoked periodically by the host's Scheduler.
func (m *DigManager) Sync() {
	type emission struct {
		pos      BlockPosition
		entityID int32
		stage    int
	}

	m.mu.Lock()
	var toEmit []emission
	var toEvict []BlockPosition
	for pos, rec := range m.records {
		if rec.Session != nil && rec.Session.Active() {
			continue
		}
		if rec.AccumulatedMs <= 0 && rec.LastStage < 0 {
			toEvict = append(toEvict, pos)
			continue
		}
		toEmit = append(toEmit, emission{pos: pos, entityID: rec.EntityID, stage: rec.LastStage})
	}
	for _, pos := range toEvict {
		delete(m.records, pos)
	}
	m.mu.Unlock()

	for _, e := range toEmit {
		m.view.SetBlockProgress(e.entityID, e.pos, e.stage)
	}
}

// TickActiveSessions advances every active session one tick. Invoked by
// the host's Scheduler at tick granularity.
func (m *DigManager) TickActiveSessions() {
	now := m.clock.NowMs()

	m.mu.RLock()
	var sessions []*DigSession
	for _, rec := range m.records {
		if rec.Session != nil && rec.Session.Active() {
			sessions = append(sessions, rec.Session)
		}
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.tick(now)
	}
}

// onSessionEnd resolves the bookkeeping for a terminated session:
//   - forced (destroy): skip persistence and the completion callback
//     entirely, evict the record.
//   - completed: trigger BreakBlock on the owning view, evict the record.
//   - otherwise (cancel): apply the resumability law — a resumable block
//     keeps accumulated progress, a non-resumable one resets to zero and
//     clears the stage overlay.
func (m *DigManager) onSessionEnd(s *DigSession, totalMs int64, forced, completed bool) {
	if forced {
		m.mu.Lock()
		delete(m.records, s.pos)
		m.mu.Unlock()
		return
	}

	if completed {
		// Leave the record in place: BreakBlock commits the break and then
		// calls clearRecord itself, which evicts the record and sends the
		// final stage -1 that clears the client's crack overlay. Deleting
		// it here first would make clearRecord a no-op and leave the last
		// emitted stage (e.g. 9) stuck on screen.
		_ = m.view.BreakBlock(s.player, s.pos, true, true, TriggerPlayer)
		return
	}

	data, _ := m.view.Get(s.pos)
	resumable := data != nil && data.Resumable()

	m.mu.Lock()
	rec := s.record
	rec.Session = nil
	if resumable {
		if totalMs > rec.AccumulatedMs {
			rec.AccumulatedMs = totalMs
		}
	} else {
		rec.AccumulatedMs = 0
		rec.LastStage = -1
	}
	evict := rec.AccumulatedMs <= 0 && rec.LastStage < 0
	entityID := rec.EntityID
	stage := rec.LastStage
	if evict {
		delete(m.records, s.pos)
		stage = -1
	}
	m.mu.Unlock()

	m.view.SetBlockProgress(entityID, s.pos, stage)
}

func stageForProgress(progress float64) int {
	if progress < 0 {
		progress = 0
	}
	stage := int(math.Ceil(9 * progress))
	if stage < 0 {
		stage = 0
	}
	if stage > 9 {
		stage = 9
	}
	return stage
}
