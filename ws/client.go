package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: bir mesajı yazmak için en uzun bekleme.
	writeWait = 10 * time.Second

	// pongWait: 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: client sadece heartbeat gönderir, büyük mesaj beklenmez.
	maxMessageSize = 1024

	// sendBufferSize: doluysa client yavaş sayılır ve bağlantı düşürülür.
	sendBufferSize = 64
)

// Client, tek bir WebSocket bağlantısı.
//
// Her bağlantı için iki goroutine çalışır: ReadPump gelen heartbeat'leri
// okur, WritePump send channel'ındaki event'leri yazar. gorilla/websocket
// aynı anda tek okuyucu ve tek yazıcıya izin verir.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	username  string
	sessionID string
	send      chan []byte
	mu        sync.Mutex // conn.WriteMessage çağrılarını korur
}

// ReadPump, bağlantı kapanana kadar client mesajlarını okur.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Debug("unexpected close", zap.String("username", c.username), zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.hub.log.Debug("invalid message", zap.String("username", c.username), zap.Error(err))
			continue
		}
		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Op {
	case OpHeartbeat:
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			return
		}
		c.hub.sendToClient(c, Event{Op: OpHeartbeatAck})
	default:
		c.hub.log.Debug("unknown op", zap.String("username", c.username), zap.String("op", event.Op))
	}
}

// WritePump, send channel kapanana kadar event'leri WebSocket'e yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	// Channel kapandı: hub client'ı çıkardı veya oturum iptal edildi
	c.writeMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (c *Client) writeMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// sendToClient, client hâlâ kayıtlıysa tek bir event gönderir. Üyelik
// kontrolü kapanmış send channel'ına yazmayı engeller.
func (h *Hub) sendToClient(c *Client, event Event) {
	data, ok := h.marshal(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.clients[c.username][c] {
		h.deliver(c, data)
	}
}
