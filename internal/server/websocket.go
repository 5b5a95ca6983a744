package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/registry"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Messages queued per client before it is dropped as too slow.
	sendBuffer = 16
)

// Client is one connected browse page
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// UpdateMessage is pushed to every client when the served catalog changes
type UpdateMessage struct {
	Type       string       `json:"type"`
	Generation int          `json:"generation"`
	Stats      *query.Stats `json:"stats,omitempty"`
	Error      string       `json:"error,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

func newUpdateMessage(event registry.CatalogEvent) UpdateMessage {
	msg := UpdateMessage{
		Type:       event.Type.String(),
		Generation: event.Generation,
		Timestamp:  event.Timestamp,
	}
	if event.Type == registry.EventTypeReloaded {
		stats := event.Stats
		msg.Stats = &stats
	}
	if event.Err != nil {
		msg.Error = event.Err.Error()
	}
	return msg
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(s.config.Server.AllowedOrigins),
	})
	if err != nil {
		// Accept has already written the error response
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "request_id", RequestID(r.Context()))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	// the page never sends anything, so only control frames are read
	ctx := conn.CloseRead(context.Background())

	select {
	case s.register <- client:
	case <-ctx.Done():
		return
	case <-s.hubDone:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	client.writePump(ctx)

	select {
	case s.unregister <- client:
	case <-s.hubDone:
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) runWebSocketHub(ctx context.Context) {
	defer close(s.hubDone)

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-s.register:
			s.clientsMutex.Lock()
			s.clients[client.conn] = client
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "Client connected", "clients", count)

		case client := <-s.unregister:
			s.clientsMutex.Lock()
			if _, ok := s.clients[client.conn]; ok {
				delete(s.clients, client.conn)
				client.close()
			}
			count := len(s.clients)
			s.clientsMutex.Unlock()
			s.logger.Debug(ctx, "Client disconnected", "clients", count)

		case message := <-s.broadcast:
			s.clientsMutex.Lock()
			for conn, client := range s.clients {
				select {
				case client.send <- message:
				default:
					// too slow; writePump sees the closed channel and returns
					delete(s.clients, conn)
					client.close()
				}
			}
			s.clientsMutex.Unlock()
		}
	}
}

// relayCatalogEvents forwards registry events to the hub until ctx ends
func (s *Server) relayCatalogEvents(ctx context.Context, events <-chan registry.CatalogEvent) {
	defer s.registry.UnWatch(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(newUpdateMessage(event))
			if err != nil {
				s.logger.Error(ctx, err, "Cannot encode catalog event")
				continue
			}
			select {
			case s.broadcast <- data:
			case <-ctx.Done():
				return
			}
		}
	}
}

// ClientCount returns the number of connected websocket clients
func (s *Server) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// writePump sends queued messages and keepalive pings until the connection
// or the send channel closes.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case message, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()
			if err != nil {
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
