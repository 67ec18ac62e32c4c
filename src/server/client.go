package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"coin-dashboard/src/helpers"
	"coin-dashboard/src/models"
	"coin-dashboard/src/query"
	"coin-dashboard/src/theme"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// View commands
const (
	CommandSearch  = "search"
	CommandSort    = "sort"
	CommandPage    = "page"
	CommandRefresh = "refresh"
	CommandTheme   = "theme"
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client is one open view: a WebSocket connection with its own query state
// and debounced search.
type Client struct {
	hub       *FastAPIServer
	conn      *websocket.Conn
	id        string
	send      chan interface{}
	debouncer *query.Debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  query.State
	closed bool
}

// -----------------------------------------------------------------------------

// push queues message without blocking. It reports false when the buffer
// is full; a closed client silently drops it.
func (c *Client) push(message interface{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

// close is called by the hub only.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.debouncer.Stop()
	c.cancel()
	close(c.send)
}

func (c *Client) getState() query.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(s query.State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Act as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
		c.hub.Logger.Debug("View %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
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
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *FastAPIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MViewCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse view command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	switch cmd.Command {
	case CommandSearch:
		state := client.getState().WithSearch(cmd.Query)
		client.setState(state)
		client.debouncer.Submit(func(token uint64) {
			s.pushListing(client, client.getState(), token)
		})

	case CommandSort:
		key, err := query.ParseSortKey(cmd.Key)
		if err != nil {
			client.pushError(err)
			return
		}
		state := client.getState()
		if cmd.Direction == "" {
			state = state.ToggleSort(key)
		} else {
			dir, err := query.ParseDirection(cmd.Direction)
			if err != nil {
				client.pushError(err)
				return
			}
			state = state.WithSort(key, dir)
		}
		client.setState(state)
		go s.pushListing(client, state, 0)

	case CommandPage:
		state := client.getState().WithPage(cmd.Page)
		client.setState(state)
		go s.pushListing(client, state, 0)

	case CommandRefresh:
		go func(state query.State) {
			view, err := s.Store.RefreshTable(client.ctx, state)
			if err != nil {
				client.pushError(err)
				return
			}
			client.push(listingMessage(state, view, 0))
		}(client.getState())

	case CommandTheme:
		t, err := theme.ParseTheme(cmd.Theme)
		if err != nil {
			client.pushError(err)
			return
		}
		go func() {
			if err := s.Theme.Set(client.ctx, t); err != nil {
				client.pushError(err)
			}
		}()

	default:
		client.pushError(helpers.NewValidationError("unknown command %q", cmd.Command))
	}
}

// -----------------------------------------------------------------------------

// pushListing loads the view for state and pushes it. A search result whose
// token has been superseded is discarded.
func (s *FastAPIServer) pushListing(client *Client, state query.State, token uint64) {
	var view models.MTableView
	if state.Search() != "" {
		view = s.Store.Search(client.ctx, state)
	} else {
		view = s.Store.Table(client.ctx, state)
	}
	if token != 0 && !client.debouncer.IsCurrent(token) {
		s.Logger.Debug("View %s dropped stale search %d", client.id, token)
		return
	}
	client.push(listingMessage(state, view, token))
}

func listingMessage(state query.State, view models.MTableView, token uint64) *models.MPushMessage {
	kind := models.PushTable
	if state.Search() != "" {
		kind = models.PushSearchResults
	}
	return &models.MPushMessage{Type: kind, Token: token, Table: &view}
}

// -----------------------------------------------------------------------------

func (c *Client) pushError(err error) {
	c.push(&models.MPushMessage{
		Type:  models.PushError,
		Error: &models.MErrorView{Kind: "invalid_request", Message: err.Error()},
	})
}
