package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/models"
)

// TokenValidator, WebSocket handler'ın token doğrulaması için kullandığı interface.
// services paketi ws'yi kullandığı için ws services'i import edemez;
// authService bu interface'i implicit olarak karşılar.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.TokenClaims, error)
}

// Handler, /ws isteklerini işler.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler, allowedOrigins boşsa bütün origin'lere izin verir.
func NewHandler(hub *Hub, tokenValidator TokenValidator, allowedOrigins []string) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowedOrigins) == 0 || origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// HandleConnection, tarayıcı WebSocket'te header gönderemediği için token'ı
// query parametresinden alır:
//
//	ws://host/ws?token=JWT
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("upgrade failed", zap.String("username", claims.Username), zap.Error(err))
		return
	}

	client := &Client{
		hub:       h.hub,
		conn:      conn,
		username:  claims.Username,
		sessionID: claims.SessionID,
		send:      make(chan []byte, sendBufferSize),
	}

	// ready, client hub'a girmeden önce buffer'a konur
	ready, err := json.Marshal(Event{Op: OpReady, Data: ReadyData{
		Username:    claims.Username,
		Role:        string(claims.Role),
		Permissions: int64(claims.Role.Permissions()),
		Columns:     models.VisibleColumns(claims.Role),
	}})
	if err == nil {
		client.send <- ready
	}

	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
