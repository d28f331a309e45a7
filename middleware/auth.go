// Package middleware, HTTP request pipeline'ına eklenen ara katmanları barındırır.
//
// Middleware bir fonksiyondur: func(next http.Handler) http.Handler.
// Zincir: Logging → Auth → Permission → Handler. Hata varsa next çağrılmaz.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/pricelist/handlers"
	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/i18n"
)

// TokenValidator, token + oturum doğrulaması (services.AuthService).
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*models.TokenClaims, error)
}

// AuthMiddleware, bearer token doğrulama middleware'ı.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware, constructor.
func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Require, geçerli token ve açık oturum zorunlu kılar.
//
// Header formatı: Authorization: Bearer <token>
// Token imzası doğru olsa bile oturum silinmiş veya süresi dolmuşsa 401 döner.
// Doğrulanan claims, handlers.ClaimsContextKey altında context'e eklenir.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := i18n.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("auth.headerRequired"))
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("auth.invalidFormat"))
			return
		}

		claims, err := m.validator.ValidateToken(r.Context(), strings.TrimSpace(tokenString))
		if err != nil {
			pkg.Error(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.WithClaims(r.Context(), claims)))
	})
}
