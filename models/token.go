package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims, bearer token'ın payload'ı.
//
// SessionID her istekte sessions.json ile karşılaştırılır; Role ise
// sadece istemcinin ekranı çizmesi içindir, yetki kontrolü her zaman
// users.json'daki güncel role göre yapılır.
type TokenClaims struct {
	SessionID string `json:"sid"`
	Username  string `json:"username"`
	Role      Role   `json:"role"`
	jwt.RegisteredClaims
}
