package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/matchmind/memory-server/game/match"
	"github.com/matchmind/memory-server/game/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Configure this for production
		return true
	},
}

// Event is the envelope for server-initiated broadcasts.
type Event struct {
	Type  string `json:"type"`
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// inboundMessage pairs a decoded client envelope with its sender.
type inboundMessage struct {
	client *Client
	env    Envelope
}

// Hub is the connection registry. It maps authenticated identities to their
// live connections and maintains named multicast groups ("lobby" watchers,
// "user:<id>" presence, "session:<id>" members) for event fan-out. It holds
// no game logic; inbound commands are delegated to the GameService.
type Hub struct {
	mu         sync.Mutex
	clients    map[string]*Client             // connection id -> client
	identities map[string]match.Identity      // connection id -> bound identity
	userConns  map[string]map[string]*Client  // user id -> connection id -> client
	groups     map[string]map[string]struct{} // group name -> user id set

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	service service.GameService
}

// NewHub creates a hub. SetService must be called before Run; the split
// exists because the dispatcher itself needs the hub as its registry.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		identities: make(map[string]match.Identity),
		userConns:  make(map[string]map[string]*Client),
		groups:     make(map[string]map[string]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inboundMessage, 64),
	}
}

// SetService injects the command dispatcher.
func (h *Hub) SetService(svc service.GameService) {
	h.service = svc
}

// Run processes connection lifecycle events and inbound commands. Commands
// are handled one at a time in arrival order, which gives every session a
// strict per-loop ordering of its mutations.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.inbound:
			h.route(msg.client, msg.env)
		}
	}
}

// ServeWS upgrades an HTTP request and starts the connection's pumps.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		id:   uuid.NewString(),
		send: make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("Connection %s registered (total connections: %d)", client.id, total)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	client.closeSend()

	id, bound := h.identities[client.id]
	if bound {
		if conns, ok := h.userConns[id.UserID]; ok {
			delete(conns, client.id)
			if len(conns) == 0 {
				delete(h.userConns, id.UserID)
			}
		}
	}
	h.mu.Unlock()

	// The dispatcher decides whether this was the user's last connection and
	// evicts them from lobby or game accordingly. The identity binding is
	// still readable during the callback.
	if h.service != nil {
		h.service.Disconnect(client.id)
	}

	h.mu.Lock()
	delete(h.identities, client.id)
	if bound && h.userConns[id.UserID] == nil {
		// Last connection gone: purge the user from every multicast group.
		for _, members := range h.groups {
			delete(members, id.UserID)
		}
	}
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("Connection %s unregistered (total connections: %d)", client.id, total)
}

// --- service.Registry ---

// Bind associates an authenticated identity with a connection. Binding is
// idempotent; a user may hold several live connections.
func (h *Hub) Bind(connID string, id match.Identity) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	h.identities[connID] = id
	if h.userConns[id.UserID] == nil {
		h.userConns[id.UserID] = make(map[string]*Client)
	}
	h.userConns[id.UserID][connID] = client
}

// Identity returns the identity bound to a connection, if any.
func (h *Hub) Identity(connID string) (match.Identity, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, ok := h.identities[connID]
	return id, ok
}

// UserOnline reports whether the user has at least one live connection.
func (h *Hub) UserOnline(userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.userConns[userID]) > 0
}

// JoinGroup adds the user to a multicast group. Joining twice is a no-op.
func (h *Hub) JoinGroup(group, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.groups[group] == nil {
		h.groups[group] = make(map[string]struct{})
	}
	h.groups[group][userID] = struct{}{}
}

// LeaveGroup removes the user from a multicast group.
func (h *Hub) LeaveGroup(group, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.groups[group]; ok {
		delete(members, userID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// DropGroup discards a whole group, typically when its session ends.
func (h *Hub) DropGroup(group string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.groups, group)
}

// ToConn sends an event to a single connection.
func (h *Hub) ToConn(connID, event string, data any) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[connID]; ok {
		client.trySend(payload)
	}
}

// ToUser sends an event to every live connection of a user. It reports
// whether at least one connection received it.
func (h *Hub) ToUser(userID, event string, data any) bool {
	payload, err := marshalEvent(event, data)
	if err != nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.userConns[userID]
	for _, client := range conns {
		client.trySend(payload)
	}
	return len(conns) > 0
}

// ToGroup multicasts an event to every member of a group. Broadcasting to an
// empty or unknown group is a no-op, not an error.
func (h *Hub) ToGroup(group, event string, data any) {
	payload, err := marshalEvent(event, data)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for userID := range h.groups[group] {
		for _, client := range h.userConns[userID] {
			client.trySend(payload)
		}
	}
}

// Counts returns the number of live connections and distinct online users.
func (h *Hub) Counts() (conns, users int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients), len(h.userConns)
}

func marshalEvent(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(&Event{Type: "event", Event: event, Data: data})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return nil, err
	}
	return payload, nil
}
