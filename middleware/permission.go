package middleware

import (
	"net/http"

	"github.com/akinalp/pricelist/handlers"
	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/i18n"
)

// PermissionMiddleware, kullanıcının rolünün gerekli yetkiye sahip olup
// olmadığını kontrol eder. AuthMiddleware'dan SONRA çalışır.
//
// Rol, ValidateToken sırasında users.json'daki güncel değerle yenilenir;
// token'daki eski rol kullanılmaz.
type PermissionMiddleware struct{}

// NewPermissionMiddleware, constructor.
func NewPermissionMiddleware() *PermissionMiddleware {
	return &PermissionMiddleware{}
}

// Require, belirli bir yetkiyi gerektiren middleware döner.
//
//	permMw.Require(models.PermEditPrices, http.HandlerFunc(h.Prices.Update))
func (m *PermissionMiddleware) Require(perm models.Permission, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loc := i18n.FromRequest(r)

		claims, ok := handlers.ClaimsFromContext(r.Context())
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("common.userNotInContext"))
			return
		}

		if !claims.Role.Can(perm) {
			pkg.ErrorWithMessage(w, http.StatusForbidden, loc.T("perm.denied"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
