package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Eltensy/newvictoryweb-sub000/cruntime"
)

// parseMessageData round-trips loosely typed message data into the target
// struct, tolerating clients that send numbers or extra fields.
func parseMessageData(data interface{}, target interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %v", err)
	}
	return nil
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The mirror binds to localhost; overlay tools connect from file:// or
		// local dev servers, so origin checking stays permissive.
		return true
	},
}

// MessageHandler processes one incoming mirror message.
type MessageHandler func(client *WSClient, message WSMessage) error

// WSClient is one connected overlay tool.
type WSClient struct {
	conn   *websocket.Conn
	send   chan WSMessage
	mirror *Mirror
	id     string
}

// Mirror is a local read-only websocket fan-out of the claim-state projection.
// Overlay tools (stream widgets, stats dashboards) subscribe here instead of
// hitting the contest backend. It never accepts claim mutations.
type Mirror struct {
	store *cruntime.Store

	clients       map[*WSClient]bool
	optsMu        sync.RWMutex
	clientOptions map[*WSClient]*ClientOptions
	broadcast     chan WSMessage
	register      chan *WSClient
	unregister    chan *WSClient
	handlers      map[MessageType]MessageHandler
}

// NewMirror creates a mirror hub over the store.
func NewMirror(store *cruntime.Store) *Mirror {
	m := &Mirror{
		store:         store,
		clients:       make(map[*WSClient]bool),
		clientOptions: make(map[*WSClient]*ClientOptions),
		broadcast:     make(chan WSMessage, 256),
		register:      make(chan *WSClient),
		unregister:    make(chan *WSClient),
		handlers:      make(map[MessageType]MessageHandler),
	}
	m.handlers[MessageTypeGetState] = m.handleGetState
	m.handlers[MessageTypeSetOptions] = m.handleSetOptions
	return m
}

// Serve starts the hub and the HTTP listener. Blocks; run it in a goroutine.
func (m *Mirror) Serve(addr string) error {
	go m.run()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", m.handleWebSocket)

	log.Printf("[MIRROR] State mirror listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

// Publish pushes the current snapshot to every connected client. Wired as the
// store change callback, so every rebuild or committed claim fans out.
func (m *Mirror) Publish() {
	msg := WSMessage{
		Type:      MessageTypeState,
		Data:      m.buildState(true, true),
		Timestamp: time.Now(),
	}
	select {
	case m.broadcast <- msg:
	default:
		// Channel full; the next change will carry the fresher snapshot anyway.
	}
}

func (m *Mirror) run() {
	for {
		select {
		case client := <-m.register:
			m.clients[client] = true
			m.setOptions(client, &ClientOptions{IncludeClaims: true})

			ack := WSMessage{
				Type:      MessageTypeAck,
				Data:      "Connected to drop map state mirror",
				Timestamp: time.Now(),
			}
			select {
			case client.send <- ack:
			default:
				close(client.send)
				delete(m.clients, client)
				m.dropOptions(client)
			}
			log.Printf("[MIRROR] Client %s connected", client.id)

		case client := <-m.unregister:
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				m.dropOptions(client)
				close(client.send)
				log.Printf("[MIRROR] Client %s disconnected", client.id)
			}

		case message := <-m.broadcast:
			for client := range m.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(m.clients, client)
					m.dropOptions(client)
				}
			}
		}
	}
}

// buildState converts the store projection to the wire snapshot.
func (m *Mirror) buildState(includeShapes, includeClaims bool) *StateData {
	territories, settings := m.store.Snapshot()

	state := &StateData{TotalTerritories: len(territories)}
	if settings != nil {
		state.SettingsID = settings.ID
		state.MapName = settings.CustomName
		state.Mode = settings.Mode
		state.IsLocked = settings.IsLocked
	}

	state.Territories = make([]*TerritoryStateSafe, 0, len(territories))
	for _, t := range territories {
		safe := &TerritoryStateSafe{
			ID:           t.ID,
			Name:         t.Name,
			Color:        t.Color,
			MaxOccupants: t.MaxOccupants,
			Occupancy:    len(t.Claims),
		}
		if includeShapes {
			safe.Points = t.Points
		}
		state.TotalClaims += len(t.Claims)
		if includeClaims {
			for _, c := range t.Claims {
				safe.Claims = append(safe.Claims, ClaimSafe{
					UserID:       c.UserID,
					DisplayName:  c.DisplayName,
					TeamID:       c.TeamID,
					IsTeamLeader: c.IsTeamLeader,
					ClaimedAt:    c.ClaimedAt,
				})
			}
		}
		state.Territories = append(state.Territories, safe)
	}
	return state
}

func (m *Mirror) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[MIRROR] WebSocket upgrade failed: %v", err)
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan WSMessage, 256),
		mirror: m,
		id:     uuid.NewString(),
	}

	m.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump pumps messages from the hub to the websocket connection.
func (c *WSClient) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				log.Printf("[MIRROR] Error writing to client %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			// Keepalive ping
			if err := c.conn.WriteJSON(WSMessage{Type: "ping", Timestamp: time.Now()}); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the websocket connection to the hub.
func (c *WSClient) readPump() {
	defer func() {
		c.mirror.unregister <- c
		c.conn.Close()
	}()

	for {
		var message WSMessage
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[MIRROR] WebSocket error: %v", err)
			}
			break
		}

		if err := c.handleMessage(message); err != nil {
			errMsg := WSMessage{
				Type:      MessageTypeError,
				RequestID: message.RequestID,
				Error:     err.Error(),
				Timestamp: time.Now(),
			}
			select {
			case c.send <- errMsg:
			default:
			}
		}
	}
}

func (c *WSClient) handleMessage(message WSMessage) error {
	handler, exists := c.mirror.handlers[message.Type]
	if !exists {
		return fmt.Errorf("unknown message type: %s", message.Type)
	}
	return handler(c, message)
}

func (m *Mirror) setOptions(client *WSClient, opts *ClientOptions) {
	m.optsMu.Lock()
	m.clientOptions[client] = opts
	m.optsMu.Unlock()
}

func (m *Mirror) dropOptions(client *WSClient) {
	m.optsMu.Lock()
	delete(m.clientOptions, client)
	m.optsMu.Unlock()
}

func (m *Mirror) handleGetState(client *WSClient, message WSMessage) error {
	m.optsMu.RLock()
	opts := m.clientOptions[client]
	m.optsMu.RUnlock()
	includeShapes := opts == nil || opts.IncludeShapes
	includeClaims := opts == nil || opts.IncludeClaims

	response := WSMessage{
		Type:      MessageTypeState,
		RequestID: message.RequestID,
		Data:      m.buildState(includeShapes, includeClaims),
		Timestamp: time.Now(),
	}

	select {
	case client.send <- response:
	default:
	}
	return nil
}

func (m *Mirror) handleSetOptions(client *WSClient, message WSMessage) error {
	var data SetOptionsData
	if err := parseMessageData(message.Data, &data); err != nil {
		return err
	}

	m.optsMu.Lock()
	opts := m.clientOptions[client]
	if opts == nil {
		opts = &ClientOptions{}
		m.clientOptions[client] = opts
	}
	if data.IncludeClaims != nil {
		opts.IncludeClaims = *data.IncludeClaims
	}
	if data.IncludeShapes != nil {
		opts.IncludeShapes = *data.IncludeShapes
	}
	m.optsMu.Unlock()

	ack := WSMessage{
		Type:      MessageTypeAck,
		RequestID: message.RequestID,
		Data:      "options updated",
		Timestamp: time.Now(),
	}
	select {
	case client.send <- ack:
	default:
	}
	return nil
}
