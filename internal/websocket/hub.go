package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"venue-guide-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// clusterMessage is what instances exchange over Redis so a viewer connected to
// another instance still receives a session's frames.
type clusterMessage struct {
	Origin          string          `json:"origin"`
	TargetSessionID string          `json:"target_session_id"`
	Close           bool            `json:"close,omitempty"`
	Message         json.RawMessage `json:"message,omitempty"`
}

type Hub struct {
	// Registered clients map: SessionID -> viewers of that session
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client
	// frames waiting to be published to Redis; full buffer drops
	outbound chan clusterMessage
	instance string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		outbound:   make(chan clusterMessage, 1024),
		instance:   uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
		go h.publishToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_id": client.SessionID})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.SessionID]
	if !ok {
		return
	}
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionID]) == 0 {
		delete(h.clients, client.SessionID)
		h.logger.Info("Hub", "Last viewer left session", map[string]interface{}{"session_id": client.SessionID})
	}
}

// Send delivers a frame to every viewer of a session. It never blocks: a
// viewer whose buffer is full misses the frame and is disconnected.
func (h *Hub) Send(sessionID string, data []byte) {
	h.deliverLocal(sessionID, data)

	if h.rdb != nil {
		h.enqueue(clusterMessage{Origin: h.instance, TargetSessionID: sessionID, Message: data})
	}
}

// CloseSession disconnects all viewers of a session on every instance.
func (h *Hub) CloseSession(sessionID string) {
	h.closeLocal(sessionID)
	if h.rdb != nil {
		h.enqueue(clusterMessage{Origin: h.instance, TargetSessionID: sessionID, Close: true})
	}
}

// Viewers is the number of local connections for a session.
func (h *Hub) Viewers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

func (h *Hub) deliverLocal(sessionID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[sessionID] {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client Send buffer full, dropping viewer", map[string]interface{}{"session_id": sessionID})
			go h.drop(client)
		}
	}
}

func (h *Hub) closeLocal(sessionID string) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[sessionID]...)
	h.mu.RUnlock()

	for _, c := range clients {
		go h.drop(c)
	}
}

func (h *Hub) drop(c *Client) {
	h.unregister <- c
}

func (h *Hub) enqueue(msg clusterMessage) {
	select {
	case h.outbound <- msg:
	default:
		h.logger.Warn("Hub", "Cluster outbound buffer full, frame not replicated", map[string]interface{}{"session_id": msg.TargetSessionID})
	}
}

func (h *Hub) publishToRedis(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-h.outbound:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := h.rdb.Publish(ctx, clusterChannel, payload).Err(); err != nil {
				h.logger.Warn("Hub", "Redis publish failed", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Redis msg parse error", map[string]interface{}{"error": err.Error()})
			continue
		}
		// local viewers were already served
		if payload.Origin == h.instance {
			continue
		}
		if payload.Close {
			h.closeLocal(payload.TargetSessionID)
			continue
		}
		h.deliverLocal(payload.TargetSessionID, payload.Message)
	}
}
