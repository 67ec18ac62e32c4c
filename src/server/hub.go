package server

import (
	"context"
	"net/http"

	"coin-dashboard/src/models"
	"coin-dashboard/src/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. It alone owns the client set.
func (s *FastAPIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.setConnections(len(s.clients))
			client.push(&models.MPushMessage{
				Type:    models.PushSession,
				Session: client.id,
				Theme:   string(s.Theme.Current()),
			})

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.close()
				s.setConnections(len(s.clients))
			}

		case message := <-s.broadcast:
			for client := range s.clients {
				if !client.push(message) {
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					client.close()
				}
			}
			s.setConnections(len(s.clients))

		case <-s.quit:
			for client := range s.clients {
				delete(s.clients, client)
				client.close()
			}
			s.setConnections(0)
			return
		}
	}
}

func (s *FastAPIServer) setConnections(n int) {
	s.stateMutex.Lock()
	s.connections = n
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// Broadcast queues a push for every open view. Payloads other than
// *models.MPushMessage are dropped.
func (s *FastAPIServer) Broadcast(payload interface{}) {
	message, ok := payload.(*models.MPushMessage)
	if !ok {
		s.Logger.Warning("Broadcast expected *models.MPushMessage, got %T", payload)
		return
	}

	select {
	case s.broadcast <- message:
	case <-s.quit:
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *FastAPIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:       s,
		conn:      conn,
		id:        uuid.NewString(),
		send:      make(chan interface{}, 256),
		state:     query.NewState(),
		debouncer: query.NewDebouncer(s.debounce),
	}
	client.ctx, client.cancel = context.WithCancel(context.Background())

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}
	s.Logger.Debug("View %s connected", client.id)

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}
