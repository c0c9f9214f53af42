// internal/httpserver/hub.go
//
// Websocket fan-out for game observers.
//   - Clients subscribe to a single game id.
//   - Publish never blocks the mover: a full broadcast queue or a slow
//     client's full send buffer drops the message for that client.
//   - Observers are read-only; inbound frames other than "request_state"
//     are ignored.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsIdlePingInterval = 30 * time.Second
	clientBuffer       = 16
)

// Hub tracks websocket observers per game.
type Hub struct {
	mu        sync.Mutex
	rooms     map[string]map[*client]struct{}
	broadcast chan event
}

type client struct {
	gameID string
	send   chan []byte
}

type event struct {
	gameID string
	data   []byte
}

// wsMessage is the envelope of every frame sent to observers.
type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewHub returns an idle hub; call Run to start delivery.
func NewHub() *Hub {
	return &Hub{
		rooms:     make(map[string]map[*client]struct{}),
		broadcast: make(chan event, 64),
	}
}

// Run delivers published messages until done is closed.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case ev := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[ev.gameID] {
				c.deliver(ev.data)
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues a typed message for every observer of gameID.
func (h *Hub) Publish(gameID, typ string, payload any) {
	data, err := encodeMessage(typ, payload)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("encode ws message")
		return
	}
	select {
	case h.broadcast <- event{gameID: gameID, data: data}:
	default:
		log.Warn().Str("gameId", gameID).Str("type", typ).Msg("ws broadcast queue full; dropping")
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.gameID]
	if room == nil {
		room = make(map[*client]struct{})
		h.rooms[c.gameID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[c.gameID]
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.gameID)
	}
}

// Observers reports how many clients watch gameID.
func (h *Hub) Observers(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[gameID])
}

// deliver must be called with the hub lock held so send is not closed under it.
func (c *client) deliver(data []byte) {
	select {
	case c.send <- data:
	default:
	}
}

func encodeMessage(typ string, payload any) ([]byte, error) {
	msg := wsMessage{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// serveWS upgrades the request and streams gameID's updates, starting with
// the given initial state.
func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request, gameID string, current func() any) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameId", gameID).Msg("ws upgrade")
		return
	}
	c := &client{gameID: gameID, send: make(chan []byte, clientBuffer)}
	h.register(c)

	sendCurrent := func() {
		data, err := encodeMessage("state", current())
		if err != nil {
			return
		}
		h.mu.Lock()
		if _, ok := h.rooms[gameID][c]; ok {
			c.deliver(data)
		}
		h.mu.Unlock()
	}
	sendCurrent()

	go func() {
		defer conn.Close()
		_ = writeWithHeartbeat(conn, c.send)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			h.unregister(c)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		if msg.Type == "request_state" {
			sendCurrent()
		}
	}
}

// writeWithHeartbeat drains send onto conn, pinging when the socket is idle.
// It returns nil once send is closed.
func writeWithHeartbeat(conn *websocket.Conn, send <-chan []byte) error {
	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()
	ping, _ := encodeMessage("ping", nil)

	for {
		select {
		case msg, ok := <-send:
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, ping); err != nil {
				return err
			}
			lastWrite = time.Now()
		}
	}
}
