// Package handlers, HTTP request/response işlemlerini yönetir.
//
// Handler ince olmalı:
//  1. Request'i parse et (JSON, multipart, path değeri)
//  2. Service'i çağır
//  3. Sonucu pkg.JSON / pkg.Error ile döndür
//
// Handler iş kuralı içermez, dosyalara doğrudan erişmez.
package handlers

import (
	"context"

	"github.com/akinalp/pricelist/models"
)

// contextKey, context.WithValue için özel tip; string key çakışmasını önler.
type contextKey string

// ClaimsContextKey, AuthMiddleware'ın doğrulanmış token claims'ini koyduğu key.
const ClaimsContextKey contextKey = "claims"

// WithClaims, claims'i context'e ekler.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext, AuthMiddleware'dan geçmiş request'in claims'ini döner.
func ClaimsFromContext(ctx context.Context) (*models.TokenClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*models.TokenClaims)
	return claims, ok && claims != nil
}
