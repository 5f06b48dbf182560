package blockview

import "sync"

// ViewBlockSet is emitted whenever BlockView.Set or SetMany writes an
// override with emitEvent=true. It is never cancellable: by the time it
// fires the write has already committed.
type ViewBlockSet struct {
	View *BlockView
	Pos  BlockPosition
	Data ViewBlockData
}

// ViewBlockBreak is emitted by BlockView.BreakBlock before the output
// override is committed. Subscribers may rewrite Output (defaulting to
// Air) or cancel the break entirely.
type ViewBlockBreak struct {
	View          *BlockView
	Player        PlayerID
	Pos           BlockPosition
	Original      ViewBlockData
	Output        ViewBlockData
	TriggerSource TriggerSource
	cancelled     bool
}

func (e *ViewBlockBreak) Cancel()          { e.cancelled = true }
func (e *ViewBlockBreak) Cancelled() bool  { return e.cancelled }
func (e *ViewBlockBreak) IsPlayerTriggered() bool {
	return e.TriggerSource == TriggerPlayer
}

// ViewBlockPlace describes a player placing a block inside a view, and
// EventBus.OnBlockPlace registers subscribers for it; dispatch halts at the
// first subscriber that cancels it. No BlockView operation dispatches it:
// BlockView.Set and SetMany dispatch only ViewBlockSet.
type ViewBlockPlace struct {
	View          *BlockView
	Player        PlayerID
	Pos           BlockPosition
	Data          ViewBlockData
	PlacedAgainst BlockPosition
	cancelled     bool
}

func (e *ViewBlockPlace) Cancel()         { e.cancelled = true }
func (e *ViewBlockPlace) Cancelled() bool { return e.cancelled }

// ViewBlockDig is emitted once per dig stage transition. Subscribers may
// rewrite Stage; the session clamps the result to [-1, 9] after dispatch.
type ViewBlockDig struct {
	View   *BlockView
	Player PlayerID
	Pos    BlockPosition
	Data   ViewBlockData
	Stage  int
}

// EventBus is a typed, synchronous multiplexer. Subscribers for a given
// event kind run in registration order on the goroutine that dispatches
// the event; a cancellation halts propagation for that dispatch and
// prevents the caller from committing whatever state change the event
// described. Mutations to an event's mutable fields (Output, Stage) made
// by one subscriber are visible to subscribers registered after it in the
// same dispatch.
type EventBus struct {
	mu            sync.RWMutex
	setHandlers   []func(*ViewBlockSet)
	breakHandlers []func(*ViewBlockBreak)
	placeHandlers []func(*ViewBlockPlace)
	digHandlers   []func(*ViewBlockDig)
}

// NewEventBus creates an empty EventBus.
func NewEventBus() *EventBus { return &EventBus{} }

// OnBlockSet registers a ViewBlockSet subscriber.
func (b *EventBus) OnBlockSet(fn func(*ViewBlockSet)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setHandlers = append(b.setHandlers, fn)
}

// OnBlockBreak registers a ViewBlockBreak subscriber.
func (b *EventBus) OnBlockBreak(fn func(*ViewBlockBreak)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.breakHandlers = append(b.breakHandlers, fn)
}

// OnBlockPlace registers a ViewBlockPlace subscriber.
func (b *EventBus) OnBlockPlace(fn func(*ViewBlockPlace)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.placeHandlers = append(b.placeHandlers, fn)
}

// OnBlockDig registers a ViewBlockDig subscriber.
func (b *EventBus) OnBlockDig(fn func(*ViewBlockDig)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.digHandlers = append(b.digHandlers, fn)
}

func (b *EventBus) dispatchSet(e *ViewBlockSet) {
	b.mu.RLock()
	handlers := b.setHandlers
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
}

// dispatchBreak runs registered handlers in order and returns whether any
// of them cancelled the break.
func (b *EventBus) dispatchBreak(e *ViewBlockBreak) bool {
	b.mu.RLock()
	handlers := b.breakHandlers
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
		if e.cancelled {
			return true
		}
	}
	return false
}

func (b *EventBus) dispatchPlace(e *ViewBlockPlace) bool {
	b.mu.RLock()
	handlers := b.placeHandlers
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
		if e.cancelled {
			return true
		}
	}
	return false
}

func (b *EventBus) dispatchDig(e *ViewBlockDig) {
	b.mu.RLock()
	handlers := b.digHandlers
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}
	if e.Stage < -1 {
		e.Stage = -1
	} else if e.Stage > 9 {
		e.Stage = 9
	}
}
