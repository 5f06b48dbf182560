package blockview

import "sync"

// packetKind distinguishes outbound updates for the dispatcher's
// (viewer, pos, kind) dedup key. Two enqueues with the same key in the
// same tick collapse to the latest.
type packetKind int

const (
	kindBlockChange packetKind = iota
	kindDestructionStage
	kindSpawnEntity
	kindRemoveEntity
)

type outboundKey struct {
	viewer PlayerID
	pos    BlockPosition
	kind   packetKind
}

type pendingEntry struct {
	key    outboundKey
	packet Packet
}

// Dispatcher collects outgoing packets per tick and delivers one bundled
// frame per viewer. Views and the dig subsystem enqueue (viewer, packet)
// pairs; nothing is sent until Flush runs, and a viewer who disconnects
// between Enqueue and Flush is silently dropped.
type Dispatcher struct {
	sink PacketSink

	mu      sync.Mutex
	pending map[PlayerID][]pendingEntry
	index   map[PlayerID]map[outboundKey]int
}

// NewDispatcher creates a Dispatcher backed by sink.
func NewDispatcher(sink PacketSink) *Dispatcher {
	return &Dispatcher{
		sink:    sink,
		pending: make(map[PlayerID][]pendingEntry),
		index:   make(map[PlayerID]map[outboundKey]int),
	}
}

func (d *Dispatcher) enqueue(viewer PlayerID, pos BlockPosition, kind packetKind, packet Packet) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := outboundKey{viewer: viewer, pos: pos, kind: kind}
	byKey, ok := d.index[viewer]
	if !ok {
		byKey = make(map[outboundKey]int)
		d.index[viewer] = byKey
	}

	if i, exists := byKey[key]; exists {
		d.pending[viewer][i].packet = packet
		return
	}

	byKey[key] = len(d.pending[viewer])
	d.pending[viewer] = append(d.pending[viewer], pendingEntry{key: key, packet: packet})
}

// enqueueUnkeyed adds a packet with no dedup key (e.g. a section update
// that already summarises many cells at once), always appended.
func (d *Dispatcher) enqueueUnkeyed(viewer PlayerID, packet Packet) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[viewer] = append(d.pending[viewer], pendingEntry{packet: packet})
}

// Flush bundles and sends every viewer's pending packets, filtering out
// viewers the host no longer reports online. It is safe to call Flush
// with no pending work; viewers with nothing queued are skipped entirely.
func (d *Dispatcher) Flush(host PlayerHost) {
	d.mu.Lock()
	snapshot := d.pending
	d.pending = make(map[PlayerID][]pendingEntry)
	d.index = make(map[PlayerID]map[outboundKey]int)
	d.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	online := make(map[PlayerID]struct{}, len(snapshot))
	for _, p := range host.OnlinePlayers() {
		online[p] = struct{}{}
	}

	for viewer, entries := range snapshot {
		if _, ok := online[viewer]; !ok {
			continue
		}
		conn := host.Connection(viewer)
		if conn == nil {
			continue
		}

		packets := make([]Packet, len(entries))
		for i, e := range entries {
			packets[i] = e.packet
		}
		d.sink.Send(conn, d.sink.Bundle(packets))
	}
}
