package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Envelope is the wire frame pushed to clients: a named event plus payload.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks live connections by room. Rooms are named by user id for
// authenticated clients and by session id for public ones; membership only
// changes at connect/disconnect time.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log,
	}
}

func (h *Hub) join(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[room]
	if !ok {
		clients = make(map[*Client]struct{})
		h.rooms[room] = clients
	}
	clients[client] = struct{}{}
}

func (h *Hub) leave(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// EmitToRoom pushes an event to every connection in the room. A client whose
// send buffer is full is dropped rather than allowed to block delivery to
// the rest of the room.
//
// Sends happen under the read lock: leave closes the send channel under the
// write lock, so a client disconnecting mid-emit cannot turn the nonblocking
// send into a send on a closed channel. The sends never block, they fall
// through to the slow list instead.
func (h *Hub) EmitToRoom(room, event string, data interface{}) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.Errorw("failed to marshal ws payload", "event", event, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for client := range h.rooms[room] {
		select {
		case client.send <- payload:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.log.Warnw("slow ws client dropped", "room", room)
		h.leave(client)
	}
}

// RoomSize reports current membership, used by tests.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
