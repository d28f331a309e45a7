// Package crypto: blob'ları bucket'ta şifreli tutmak için AES-256-GCM.
//
// users.json ve sessions.json şifre hash'leri ve oturum kimlikleri taşır.
// STORAGE_ENCRYPTION_KEY tanımlıysa bu dosyalar Seal ile yazılır,
// Open ile okunur. Şifreli içerik sealedPrefix ile başlar; prefix'siz içerik
// düz metin kabul edilir (şifreleme sonradan açılan kurulumlar için).
//
// Format: "enc:v1:" + base64(nonce(12 byte) + ciphertext + tag)
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
)

var sealedPrefix = []byte("enc:v1:")

// DeriveKey, 64 hex karakterlik string'den 32-byte AES-256 anahtarı üretir.
func DeriveKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must be exactly 32 bytes (64 hex chars), got %d bytes", len(key))
	}
	return key, nil
}

// IsSealed, verinin Seal çıktısı olup olmadığını söyler.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealedPrefix)
}

// Seal, plaintext'i şifreler ve prefix'li, base64 kodlu çıktıyı döner.
func Seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// Her çağrıda yeni nonce; aynı içerik iki kez yazılsa da çıktı farklıdır.
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)

	out := make([]byte, 0, len(sealedPrefix)+base64.StdEncoding.EncodedLen(len(sealed)))
	out = append(out, sealedPrefix...)
	out = base64.StdEncoding.AppendEncode(out, sealed)
	return out, nil
}

// Open, Seal çıktısını çözer. Prefix yoksa veri olduğu gibi döner.
func Open(data, key []byte) ([]byte, error) {
	if !IsSealed(data) {
		return data, nil
	}

	raw, err := base64.StdEncoding.DecodeString(string(data[len(sealedPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed (wrong key or corrupted data): %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
