// Package sse fans server-side events out to connected browser clients.
package sse

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	clientBuffer      = 16
	keepAliveInterval = 30 * time.Second
)

// Event is one message pushed to clients.
type Event struct {
	Name string
	Data any
}

type client struct {
	id     string
	events chan Event
}

// Manager keeps the set of connected clients. Run must be started before
// any client connects.
type Manager struct {
	clients    map[string]*client
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	done       chan struct{}
	log        *zap.SugaredLogger
}

func NewManager(log *zap.SugaredLogger) *Manager {
	return &Manager{
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
		log:        log.Named("sse"),
	}
}

// Run owns the client map until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	for {
		select {
		case <-ctx.Done():
			for id, c := range m.clients {
				close(c.events)
				delete(m.clients, id)
			}
			return
		case c := <-m.register:
			m.clients[c.id] = c
			m.log.Debugw("client connected", "client", c.id, "clients", len(m.clients))
		case c := <-m.unregister:
			if _, ok := m.clients[c.id]; ok {
				close(c.events)
				delete(m.clients, c.id)
				m.log.Debugw("client disconnected", "client", c.id, "clients", len(m.clients))
			}
		case ev := <-m.broadcast:
			for _, c := range m.clients {
				select {
				case c.events <- ev:
				default:
					m.log.Warnw("client too slow, dropping event", "client", c.id, "event", ev.Name)
				}
			}
		}
	}
}

// Broadcast queues an event for every connected client. It never blocks;
// when the queue is full the event is dropped.
func (m *Manager) Broadcast(name string, data any) {
	select {
	case m.broadcast <- Event{Name: name, Data: data}:
	default:
		m.log.Warnw("broadcast queue full, dropping event", "event", name)
	}
}

// ServeHTTP streams events to c until the request is cancelled.
func (m *Manager) ServeHTTP(c *gin.Context) {
	cl := &client{id: uuid.New().String(), events: make(chan Event, clientBuffer)}

	ctx := c.Request.Context()
	select {
	case m.register <- cl:
	case <-ctx.Done():
		return
	case <-m.done:
		return
	}
	defer func() {
		select {
		case m.unregister <- cl:
		case <-m.done:
		}
	}()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"client": cl.id})
	c.Writer.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-cl.events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(ev.Data)
			if err != nil {
				m.log.Errorw("failed to encode event", "event", ev.Name, "error", err)
				return true
			}
			c.SSEvent(ev.Name, string(payload))
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		}
	})
}
