package models

import "time"

// Session, login sonrası oluşturulan zaman sınırlı oturum.
//
// Oturumlar sessions.json içinde tutulur; token tek başına yetmez,
// oturum hâlâ dosyada ve süresi dolmamış olmalıdır. Böylece logout,
// kullanıcı silme ve rol/parola değişikliği token'ları anında geçersiz kılar.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired, oturumun verilen anda süresinin dolup dolmadığını döner.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// LoginResponse, başarılı login'in cevabı.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}
