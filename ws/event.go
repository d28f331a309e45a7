// Package ws, dashboard'lara gerçek zamanlı bildirim gönderir.
//
// Mimari:
//   - Hub: bütün bağlantıları kullanıcı adına göre tutan merkezi yapı
//   - Client: tek bir WebSocket bağlantısı (ReadPump + WritePump)
//   - Event: client-server arası mesaj formatı {op, d, seq}
//
// Akış:
//  1. Fiyat listesi kaydedilir → PriceListService hub.BroadcastToAll çağırır
//  2. Hub event'i bütün client'ların send channel'ına koyar
//  3. WritePump event'i WebSocket'e yazar, dashboard tabloyu yeniden çeker
package ws

import "time"

// Event, WebSocket üzerinden iletilen bir mesaj.
//
// Seq her outbound event'te artar; istemci kaçırdığı event'i fark edip
// listeyi HTTP ile yeniden yükleyebilir.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → Server
const (
	OpHeartbeat = "heartbeat" // her 30 sn
)

// Server → Client
const (
	OpReady           = "ready"
	OpHeartbeatAck    = "heartbeat_ack"
	OpPriceListUpdate = "pricelist_update"
	OpSessionRevoked  = "session_revoked" // logout, silme, rol/parola değişikliği
)

// ReadyData, bağlantı kurulunca gönderilen ilk event'in payload'ı.
type ReadyData struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions int64    `json:"permissions"`
	Columns     []string `json:"columns"`
}

// PriceListUpdateData, kayıt sonrası yayınlanan bilgi. Satırların kendisi
// gönderilmez; her rol kendi kolonlarını HTTP ile çeker.
type PriceListUpdateData struct {
	UpdatedBy   string    `json:"updated_by"`
	Rows        int       `json:"rows"`
	HistoryName string    `json:"history_name"`
	SavedAt     time.Time `json:"saved_at"`
}

// SessionRevokedData, bağlantı kapatılmadan önce gönderilir.
type SessionRevokedData struct {
	Reason string `json:"reason"`
}
