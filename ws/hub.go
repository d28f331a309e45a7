package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventPublisher, service katmanının hub'ı kullandığı interface.
// Service'ler Hub struct'ına değil bu interface'e bağımlıdır.
type EventPublisher interface {
	BroadcastToAll(event Event)
	// RevokeUser, kullanıcının bütün bağlantılarına session_revoked gönderip kapatır.
	RevokeUser(username, reason string)
	// RevokeSession, sadece verilen oturumla açılmış bağlantıları kapatır.
	RevokeSession(sessionID, reason string)
}

// Hub, bütün WebSocket bağlantılarını yönetir.
//
// clients: username → Client set (bir kullanıcının birden fazla sekmesi olabilir).
// register/unregister channel'ları Run goroutine'i tarafından tüketilir;
// Run durduktan sonra gelen kayıtlar done üzerinden reddedilir.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	seq atomic.Int64
	log *zap.Logger
}

// NewHub, yeni bir Hub oluşturur.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.Named("ws"),
	}
}

// Run, hub'ın event loop'u. ctx iptal edilince bütün bağlantıları kapatıp döner.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.shutdown()
			return nil
		}
	}
}

// Register, client'ı hub'a ekler. Hub durmuşsa false döner.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister, client'ı çıkarır; hub durmuşsa bir şey yapmaz.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.username]; !ok {
		h.clients[c.username] = make(map[*Client]bool)
	}
	h.clients[c.username][c] = true

	h.log.Debug("client connected",
		zap.String("username", c.username),
		zap.Int("connections", len(h.clients[c.username])),
	)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[c.username]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	close(c.send)

	if len(clients) == 0 {
		delete(h.clients, c.username)
	}
	h.log.Debug("client disconnected",
		zap.String("username", c.username),
		zap.Int("remaining", len(clients)),
	)
}

func (h *Hub) marshal(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return nil, false
	}
	return data, true
}

// deliver, buffer'ı dolu client'ı ayrı goroutine'de çıkarır; RLock altında
// unregister channel'ına yazmak Run ile kilitlenir.
func (h *Hub) deliver(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn("send buffer full, dropping connection", zap.String("username", c.username))
		go h.Unregister(c)
	}
}

// BroadcastToAll, bütün bağlı client'lara event gönderir.
func (h *Hub) BroadcastToAll(event Event) {
	data, ok := h.marshal(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, clients := range h.clients {
		for c := range clients {
			h.deliver(c, data)
		}
	}
}

// RevokeUser, kullanıcının bütün bağlantılarını kapatır.
func (h *Hub) RevokeUser(username, reason string) {
	h.revoke(reason, func(c *Client) bool { return c.username == username })
}

// RevokeSession, oturuma ait bağlantıları kapatır.
func (h *Hub) RevokeSession(sessionID, reason string) {
	h.revoke(reason, func(c *Client) bool { return c.sessionID == sessionID })
}

// revoke, eşleşen client'lara session_revoked koyar ve send channel'ını
// kapatır; WritePump kuyruktakileri yazıp close frame gönderir.
func (h *Hub) revoke(reason string, match func(*Client) bool) {
	data, ok := h.marshal(Event{Op: OpSessionRevoked, Data: SessionRevokedData{Reason: reason}})
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for username, clients := range h.clients {
		for c := range clients {
			if !match(c) {
				continue
			}
			select {
			case c.send <- data:
			default:
			}
			delete(clients, c)
			close(c.send)
		}
		if len(clients) == 0 {
			delete(h.clients, username)
		}
	}
}

// OnlineUsernames, bağlı kullanıcı adlarını döner (health endpoint'i için).
func (h *Hub) OnlineUsernames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.clients))
	for name := range h.clients {
		names = append(names, name)
	}
	return names
}

// ConnectionCount, açık bağlantı sayısı (health endpoint'i için).
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

func (h *Hub) shutdown() {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for c := range clients {
			close(c.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.log.Info("hub shut down, all connections closed")
}
