package blockview

import "sync"

type sessionState int32

const (
	statePending sessionState = iota
	stateActive
	stateTerminated
)

// DigSession is a per-cell, per-player timed state machine advancing a
// destruction stage until the cell breaks or the dig is cancelled.
// Pending transitions to Active on start, then to Terminated via
// complete, cancel, or destroy (forcible, skips the completion callback).
type DigSession struct {
	manager         *DigManager
	pos             BlockPosition
	record          *DigRecord
	player          PlayerID
	fullBreakMs     float64
	speedMultiplier float64

	mu                sync.Mutex
	state             sessionState
	startMs           int64
	baseAccumulatedMs int64
	lastStage         int
}

func newDigSession(m *DigManager, pos BlockPosition, rec *DigRecord, player PlayerID, fullBreakMs, speedMultiplier float64) *DigSession {
	return &DigSession{
		manager:           m,
		pos:               pos,
		record:            rec,
		player:            player,
		fullBreakMs:       fullBreakMs,
		speedMultiplier:   speedMultiplier,
		state:             statePending,
		baseAccumulatedMs: rec.AccumulatedMs,
		lastStage:         rec.LastStage,
	}
}

// Active reports whether the session is currently in the Active state.
func (s *DigSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateActive
}

// Player returns the player this session was started by.
func (s *DigSession) Player() PlayerID { return s.player }

// start activates the session and, before the first tick ever runs, emits
// the stage corresponding to whatever progress the record already carries
// (zero for a fresh dig, the resumed fraction otherwise) — mirroring the
// original, which computes and sends this stage synchronously on start
// rather than waiting for the first scheduled tick.
func (s *DigSession) start() {
	s.mu.Lock()
	s.state = stateActive
	s.startMs = s.manager.clock.NowMs()
	base := s.baseAccumulatedMs
	full := s.fullBreakMs
	s.mu.Unlock()

	stage := 0
	if full > 0 {
		stage = stageForProgress(float64(base) / full)
	}
	s.emitStage(stage)
}

// tick advances the session given the current wall-clock time. If total
// elapsed progress reaches full_break_ms it terminates the session as a
// completion; otherwise it recomputes the stage and, if changed, emits a
// ViewBlockDig notification and a stage packet.
func (s *DigSession) tick(nowMs int64) {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}

	elapsed := float64(nowMs-s.startMs) * s.speedMultiplier
	total := float64(s.baseAccumulatedMs) + elapsed

	if s.fullBreakMs <= 0 || total >= s.fullBreakMs {
		s.state = stateTerminated
		s.mu.Unlock()
		s.manager.onSessionEnd(s, int64(total), false, true)
		return
	}

	stage := stageForProgress(total / s.fullBreakMs)
	changed := stage != s.lastStage
	s.record.AccumulatedMs = int64(total)
	s.mu.Unlock()

	if changed {
		s.emitStage(stage)
	}
}

// emitStage dispatches a ViewBlockDig event (subscribers may rewrite the
// stage), then commits the result to the record and the dispatcher.
func (s *DigSession) emitStage(stage int) {
	data, _ := s.manager.view.Get(s.pos)
	ev := &ViewBlockDig{View: s.manager.view, Player: s.player, Pos: s.pos, Data: data, Stage: stage}

	if s.manager.view.events != nil {
		s.manager.view.events.dispatchDig(ev)
	} else if ev.Stage < -1 {
		ev.Stage = -1
	} else if ev.Stage > 9 {
		ev.Stage = 9
	}

	s.mu.Lock()
	s.lastStage = ev.Stage
	s.record.LastStage = ev.Stage
	s.mu.Unlock()

	s.manager.view.SetBlockProgress(s.record.EntityID, s.pos, ev.Stage)
}

// currentTotalMsLocked computes the session's elapsed progress as of now. Must
// be called with s.mu held.
func (s *DigSession) currentTotalMsLocked(nowMs int64) int64 {
	elapsed := float64(nowMs-s.startMs) * s.speedMultiplier
	return int64(float64(s.baseAccumulatedMs) + elapsed)
}

// complete ends the session as a successful break regardless of elapsed
// time; a no-op if the session is not Active.
func (s *DigSession) complete() {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	s.state = stateTerminated
	total := s.currentTotalMsLocked(s.manager.clock.NowMs())
	s.mu.Unlock()
	s.manager.onSessionEnd(s, total, false, true)
}

// cancel ends the session without breaking the block; a no-op if the
// session is not Active. Cancellation is idempotent.
func (s *DigSession) cancel() {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	s.state = stateTerminated
	total := s.currentTotalMsLocked(s.manager.clock.NowMs())
	s.mu.Unlock()
	s.manager.onSessionEnd(s, total, false, false)
}

// destroy forcibly terminates the session, skipping the completion
// callback and any state persistence; the manager evicts the record
// outright. Idempotent.
func (s *DigSession) destroy() {
	s.mu.Lock()
	if s.state == stateTerminated {
		s.mu.Unlock()
		return
	}
	s.state = stateTerminated
	s.mu.Unlock()
	s.manager.onSessionEnd(s, 0, true, false)
}
