package services

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost, yeni hash'lerin maliyeti.
const BcryptCost = 12

// hashCost, testlerde bcrypt.MinCost'a çekilir.
var hashCost = BcryptCost

// HashPassword, parolayı bcrypt ile hash'ler.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword, parolayı kayıtlı hash ile karşılaştırır.
//
// Eski users.json dosyaları tuzsuz SHA-256 hex taşır (64 karakter). Bu
// format da kabul edilir ve needsUpgrade true döner; çağıran taraf
// başarılı girişte hash'i bcrypt ile yeniden yazar.
func VerifyPassword(password, hash string) (ok, needsUpgrade bool) {
	if isLegacySHA256(hash) {
		sum := sha256.Sum256([]byte(password))
		match := subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(hash)) == 1
		return match, match
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, false
}

func isLegacySHA256(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
