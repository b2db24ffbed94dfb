package websocket

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync/atomic"
	"time"

	"doorcam/internal/commands"
	"doorcam/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 2 * time.Second
	// frames buffered per client before new ones are dropped for it
	clientBuffer = 4
	// DefaultPingPeriod must stay below the viewers' read timeout.
	DefaultPingPeriod = 54 * time.Second
)

// FrameMessage is what live-view clients receive for every frame.
type FrameMessage struct {
	Image       string `json:"image"` // base64 JPEG
	Motion      bool   `json:"motion"`
	PhotosTaken int64  `json:"photos"`
}

// client owns the only writer of its connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// HubService fans frames out to live-view clients and collects the commands
// they send back. The clients map belongs to Run; every connection is written
// by its own goroutine so a stalled viewer only loses its own frames.
type HubService struct {
	// PingPeriod is read when a client registers.
	PingPeriod time.Duration

	clients    map[*websocket.Conn]*client
	count      atomic.Int32
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	commands   chan commands.Command
	done       chan struct{}
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		PingPeriod: DefaultPingPeriod,
		clients:    make(map[*websocket.Conn]*client),
		broadcast:  make(chan []byte, 2),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		commands:   make(chan commands.Command, 8),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then disconnects every client.
func (h *HubService) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for conn, c := range h.clients {
				close(c.send)
				delete(h.clients, conn)
			}
			h.count.Store(0)
			return

		case conn := <-h.register:
			c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
			h.clients[conn] = c
			h.count.Store(int32(len(h.clients)))
			go h.writePump(c, h.PingPeriod)
			h.logger.Info("[VIEW] Client connected. Total: %d", len(h.clients))

		case conn := <-h.unregister:
			if c, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				close(c.send)
				h.count.Store(int32(len(h.clients)))
				h.logger.Info("[VIEW] Client disconnected. Total: %d", len(h.clients))
			}

		case message := <-h.broadcast:
			for _, c := range h.clients {
				select {
				case c.send <- message:
				default:
					// viewer is behind, it skips this frame
				}
			}
		}
	}
}

// writePump sends queued frames and keep-alive pings until the send channel
// is closed or a write fails.
func (h *HubService) writePump(c *client, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warning("[VIEW] Error sending frame: %v", err)
				h.Unregister(c.conn)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.Unregister(c.conn)
				return
			}
		}
	}
}

func (h *HubService) Register(conn *websocket.Conn) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.Close()
	}
}

func (h *HubService) Unregister(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast queues message for every client. When the hub is still busy with
// earlier frames the message is dropped.
func (h *HubService) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		return false
	}
}

// BroadcastFrame wraps a JPEG frame in a FrameMessage and broadcasts it.
func (h *HubService) BroadcastFrame(jpeg []byte, motion bool, photos int64) bool {
	msg, err := json.Marshal(FrameMessage{
		Image:       base64.StdEncoding.EncodeToString(jpeg),
		Motion:      motion,
		PhotosTaken: photos,
	})
	if err != nil {
		h.logger.Error("[VIEW] Failed to encode frame message: %v", err)
		return false
	}
	return h.Broadcast(msg)
}

// SubmitCommand hands a client command to the main loop without blocking.
func (h *HubService) SubmitCommand(cmd commands.Command) bool {
	select {
	case h.commands <- cmd:
		return true
	default:
		h.logger.Warning("[VIEW] Command queue full, dropping %s", cmd)
		return false
	}
}

// Commands is drained by the main loop once per frame.
func (h *HubService) Commands() <-chan commands.Command {
	return h.commands
}

// GetClientCount never blocks; the main loop calls it every frame.
func (h *HubService) GetClientCount() int {
	return int(h.count.Load())
}
