package blockview

import (
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

// syncPeriodTicks is the DigManager.Sync cadence: roughly once a minute
// at a nominal 20 ticks/second.
const syncPeriodTicks = 1200

// Engine is the top-level coordinator tying a ViewManager, EventBus,
// Dispatcher, and a pair of background jobs registered with the host's
// Scheduler. There is normally one Engine per running server; it owns no
// goroutine or timer of its own — every suspension point is a task it
// registers with the host.
type Engine struct {
	Views      *ViewManager
	Events     *EventBus
	Dispatcher *Dispatcher
	WorldHost  WorldHost
	PlayerHost PlayerHost
	Registry   *BlockDataRegistry

	scheduler  Scheduler
	running    atomic.Bool
	tickHandle TaskHandle
	syncHandle TaskHandle
}

// NewEngine wires the engine's collaborators together. It registers a
// PlayerHost.OnLeave hook that stops every dig session the leaving player
// owns across all views.
func NewEngine(registry *BlockDataRegistry, events *EventBus, sink PacketSink, worldHost WorldHost, playerHost PlayerHost, scheduler Scheduler) *Engine {
	e := &Engine{
		Views:      NewViewManager(),
		Events:     events,
		Dispatcher: NewDispatcher(sink),
		WorldHost:  worldHost,
		PlayerHost: playerHost,
		Registry:   registry,
		scheduler:  scheduler,
	}
	if playerHost != nil {
		playerHost.OnLeave(e.Views.HandlePlayerLeave)
	}
	return e
}

// NewView constructs a BlockView sharing this engine's collaborators and
// registers it with the engine's ViewManager in one step.
func (e *Engine) NewView(id uuid.UUID, world WorldID, origin BlockPosition, w, h, d int, typ ViewType, opts ...ViewOption) (*BlockView, error) {
	v := NewBlockView(id, world, origin, w, h, d, typ, e.Registry, e.Events, e.Dispatcher, e.WorldHost, e.PlayerHost, opts...)
	if err := e.Views.Register(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Start registers the engine's two background jobs with the host
// Scheduler: a per-tick job driving active dig sessions and flushing the
// dispatcher, and a coarser job driving DigManager.Sync across every
// view. Calling Start on an already-running engine is a no-op.
func (e *Engine) Start() {
	if e.running.Swap(true) {
		return
	}
	e.tickHandle = e.scheduler.ScheduleRepeating(e.tick, 0, 1, false)
	e.syncHandle = e.scheduler.ScheduleRepeating(e.syncAll, syncPeriodTicks, syncPeriodTicks, true)
}

// Stop cancels both background jobs. Calling Stop on an already-stopped
// engine is a no-op.
func (e *Engine) Stop() {
	if !e.running.Swap(false) {
		return
	}
	e.scheduler.Cancel(e.tickHandle)
	e.scheduler.Cancel(e.syncHandle)
}

// tick is the per-tick job: it advances every view's active dig sessions,
// then flushes the dispatcher once for every viewer.
func (e *Engine) tick() {
	defer e.recoverPanic("tick")

	for _, v := range e.Views.AllViews() {
		v.DigManager().TickActiveSessions()
	}
	e.Dispatcher.Flush(e.PlayerHost)
}

// syncAll runs DigManager.Sync across every registered view.
func (e *Engine) syncAll() {
	defer e.recoverPanic("sync")

	for _, v := range e.Views.AllViews() {
		v.DigManager().Sync()
	}
}

func (e *Engine) recoverPanic(job string) {
	if r := recover(); r != nil {
		slog.Error("blockview: recovered panic in background job", "job", job, "recovered", r)
	}
}
