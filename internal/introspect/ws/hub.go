// Package ws is the introspection gateway: a WebSocket hub that lets an
// external observer subscribe to a node's output by its fully-qualified
// recordable path and receive a live stream of its value changes.
// Adapted from the teacher's internal/gateway (Hub/Client/Broadcaster),
// generalised from "Redis PubSub channel per (indicator, TF, token)" to
// "one path per recordable node" — the engine core pushes directly to the
// hub instead of round-tripping through Redis PubSub, since the hub lives
// in the same process as the engine it introspects.
package ws

import (
	"encoding/json"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type latestEntry struct {
	Data []byte
	At   time.Time
	Seq  int64
}

// Hub manages WebSocket clients and fans out node-value updates pushed by
// the engine via Publish.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	latest      map[string]latestEntry
	replayBufs  map[string]*replayBuffer
	pathSeqs    map[string]int64
	seq         int64
}

// NewHub creates an empty introspection hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		latest:     make(map[string]latestEntry),
		replayBufs: make(map[string]*replayBuffer),
		pathSeqs:   make(map[string]int64),
	}
}

// Publish broadcasts a node's current value to every client subscribed to
// path. data is pre-marshalled JSON (the caller owns encoding, mirroring
// spec §6's "the core does not name a specific foreign runtime").
func (h *Hub) Publish(path string, at time.Time, data json.RawMessage) {
	h.mu.Lock()
	h.pathSeqs[path]++
	pathSeq := h.pathSeqs[path]
	h.latest[path] = latestEntry{Data: data, At: at, Seq: pathSeq}
	h.seq++
	seq := h.seq
	rb, ok := h.replayBufs[path]
	if !ok {
		rb = newReplayBuffer(500)
		h.replayBufs[path] = rb
	}
	h.mu.Unlock()

	// Hand-crafted envelope JSON avoids a reflective json.Marshal on the
	// hot path, matching the teacher's broadcaster.
	buf := make([]byte, 0, len(path)+len(data)+128)
	buf = append(buf, `{"path":"`...)
	buf = append(buf, path...)
	buf = append(buf, `","data":`...)
	buf = append(buf, data...)
	buf = append(buf, `,"ts":"`...)
	buf = at.UTC().AppendFormat(buf, time.RFC3339Nano)
	buf = append(buf, `","seq":`...)
	buf = strconv.AppendInt(buf, seq, 10)
	buf = append(buf, `,"path_seq":`...)
	buf = strconv.AppendInt(buf, pathSeq, 10)
	buf = append(buf, '}')

	rb.push(pathSeq, buf)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.isSubscribed(path) {
			continue
		}
		select {
		case c.send <- buf:
		default:
		}
	}
}

// HandleConn upgrades an already-accepted WebSocket connection into a
// tracked Client.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	c := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		hub:  h,
		subs: make(map[string]bool),
	}
	conn.EnableWriteCompression(true)

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	log.Printf("[introspect] ws client connected (%d total)", len(h.clients))

	go c.writePump()
	go c.readPump()
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

// ClientCount returns the number of connected introspection clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// snapshot returns the current value and recent history for path, used to
// answer a fresh SUBSCRIBE.
func (h *Hub) snapshot(path string) (latestEntry, []Envelope, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.latest[path]
	if !ok {
		return latestEntry{}, nil, false
	}
	var history []Envelope
	if rb, ok := h.replayBufs[path]; ok {
		history = rb.rangeSince(0)
	}
	return entry, history, true
}
