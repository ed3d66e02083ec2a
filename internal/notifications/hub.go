// Package notifications carries typed frames between websocket connections
// and the event handlers. Frames addressed to a room travel through a Redis
// backplane so every process sees one logical room.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"

	"banterbus/internal/observability"

	"github.com/gofiber/websocket/v2"
)

// Max total connections per process.
const maxTotalConns = 10000

// Frame is the wire shape of one outbound event.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Emitter is the transport surface the event handlers depend on. Target is
// either a session id or a room id.
type Emitter interface {
	Emit(target, event string, payload any)
	Join(sid, roomID string)
	Leave(sid, roomID string)
}

// Hub maps session ids to Clients and room ids to their member sessions.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	rooms      map[string]map[string]struct{}
	sidRooms   map[string]map[string]struct{}
	totalConns int
	notifier   *Notifier
	shutdown   chan struct{}
}

// NewHub creates a hub wired to the given notifier. A nil notifier keeps all
// delivery in-process, which is what the tests use.
func NewHub(notifier *Notifier) *Hub {
	return &Hub{
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]struct{}),
		sidRooms: make(map[string]map[string]struct{}),
		notifier: notifier,
		shutdown: make(chan struct{}),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "game hub" }

// Register adds a connection under its session id.
func (h *Hub) Register(sid string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}
	if _, ok := h.clients[sid]; ok {
		return nil, errors.New("session id already registered")
	}

	client := NewClient(h, conn, sid)
	h.clients[sid] = client
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient drops a connection and its room memberships.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.SID]; ok {
		delete(h.clients, client.SID)
		h.totalConns--
		observability.WebSocketConnectionsTotal.Dec()
	}
	for roomID := range h.sidRooms[client.SID] {
		h.removeMemberLocked(client.SID, roomID)
	}
	delete(h.sidRooms, client.SID)
	h.mu.Unlock()
}

// Join adds the session to a room's recipient set.
func (h *Hub) Join(sid, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[roomID] = members
	}
	members[sid] = struct{}{}

	joined, ok := h.sidRooms[sid]
	if !ok {
		joined = make(map[string]struct{})
		h.sidRooms[sid] = joined
	}
	joined[roomID] = struct{}{}

	observability.RoomMembers.WithLabelValues(roomID).Set(float64(len(members)))
}

// Leave removes the session from a room's recipient set.
func (h *Hub) Leave(sid, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeMemberLocked(sid, roomID)
	if joined, ok := h.sidRooms[sid]; ok {
		delete(joined, roomID)
	}
}

func (h *Hub) removeMemberLocked(sid, roomID string) {
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, sid)
	if len(members) == 0 {
		delete(h.rooms, roomID)
		observability.RoomMembers.DeleteLabelValues(roomID)
		return
	}
	observability.RoomMembers.WithLabelValues(roomID).Set(float64(len(members)))
}

// Emit sends an event to a session id or, when the target is not a locally
// known session, to a room via the backplane.
func (h *Hub) Emit(target, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("emit %s: marshal payload: %v", event, err)
		return
	}
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		log.Printf("emit %s: marshal frame: %v", event, err)
		return
	}

	h.mu.RLock()
	client, isLocalSID := h.clients[target]
	h.mu.RUnlock()

	if isLocalSID {
		client.TrySend(frame)
		return
	}

	if h.notifier.Enabled() {
		// A target that is not attached here is a room id or a session on
		// another process; the subscriber side resolves which.
		for _, channel := range []string{RoomChannel(target), SessionChannel(target)} {
			if err := h.notifier.Publish(context.Background(), channel, string(frame)); err != nil {
				log.Printf("emit %s: publish %s: %v", event, channel, err)
			}
		}
		return
	}
	h.deliverRoom(target, frame)
}

// deliverRoom fans a frame out to every local member of a room.
func (h *Hub) deliverRoom(roomID string, frame []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sid := range h.rooms[roomID] {
		if client, ok := h.clients[sid]; ok {
			client.TrySend(frame)
		}
	}
}

// deliverSID hands a frame to a single local session, if attached here.
func (h *Hub) deliverSID(sid string, frame []byte) {
	h.mu.RLock()
	client, ok := h.clients[sid]
	h.mu.RUnlock()
	if ok {
		client.TrySend(frame)
	}
}

// StartWiring subscribes the hub to the backplane channels and forwards
// incoming frames to local recipients.
func (h *Hub) StartWiring(ctx context.Context) error {
	return h.notifier.StartRoomSubscriber(ctx, func(channel, payload string) {
		if roomID, ok := ParseRoomChannel(channel); ok {
			h.deliverRoom(roomID, []byte(payload))
			return
		}
		if sid, ok := ParseSessionChannel(channel); ok {
			h.deliverSID(sid, []byte(payload))
			return
		}
		log.Printf("invalid backplane channel: %s", channel)
	})
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	close(h.shutdown)

	h.mu.Lock()
	defer h.mu.Unlock()
	for sid, client := range h.clients {
		if client.Conn == nil {
			continue
		}
		if err := client.Conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
			log.Printf("failed to write close message for session %s: %v", sid, err)
		}
		if err := client.Conn.Close(); err != nil {
			log.Printf("failed to close websocket for session %s: %v", sid, err)
		}
	}
	h.clients = make(map[string]*Client)
	h.rooms = make(map[string]map[string]struct{})
	h.sidRooms = make(map[string]map[string]struct{})
	h.totalConns = 0
	return nil
}
