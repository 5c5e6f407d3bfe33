package socket

import (
	"encoding/json"
	"sync"

	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"
)

// AllPosts is the room that receives the events of every post.
const AllPosts = "*"

type WSMessage struct {
	Type    string          `json:"type"`
	PostID  string          `json:"post_id"`
	Payload json.RawMessage `json:"payload"`
}

// Hub fans post change events out to websocket clients. A client sits in
// exactly one room: AllPosts or the id of a single post.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan WSMessage
	Register   chan *Client
	Unregister chan *Client

	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan WSMessage),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.Room] == nil {
				h.Rooms[client.Room] = make(map[*Client]bool)
			}
			h.Rooms[client.Room][client] = true
			h.mu.Unlock()
			logger.Sugar.Infof("Client joined room %s", client.Room)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case msg := <-h.Broadcast:
			payload, err := json.Marshal(msg)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling broadcast message: %v", err)
				continue
			}

			h.mu.Lock()
			for _, room := range []string{AllPosts, msg.PostID} {
				for client := range h.Rooms[room] {
					select {
					case client.Send <- payload:
					default:
						// The send buffer is full, the client is lagging.
						logger.Sugar.Warnf("Client in room %s is lagging. Unregistering.", room)
						h.removeClient(client)
					}
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.Rooms {
				for client := range clients {
					h.removeClient(client)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

// Publish queues an event for broadcast. It satisfies service.Publisher and
// becomes a no-op once the hub is stopped.
func (h *Hub) Publish(kind, postID string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload for post %s: %v", kind, postID, err)
		return
	}
	select {
	case h.Broadcast <- WSMessage{Type: kind, PostID: postID, Payload: raw}:
	case <-h.done:
	}
}

// Stop disconnects every client and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of clients in room.
func (h *Hub) ClientCount(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[room])
}

// removeClient must be called with h.mu held.
func (h *Hub) removeClient(client *Client) {
	clients, ok := h.Rooms[client.Room]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.Rooms, client.Room)
	}
}
