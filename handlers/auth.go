package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/i18n"
	"github.com/akinalp/pricelist/pkg/ratelimit"
	"github.com/akinalp/pricelist/services"
)

// AuthHandler, giriş/çıkış ve kullanıcının kendi hesabı.
type AuthHandler struct {
	authService  services.AuthService
	userService  services.UserService
	loginLimiter *ratelimit.LoginRateLimiter
}

// NewAuthHandler, constructor. loginLimiter nil ise rate limiting kapalıdır.
func NewAuthHandler(
	authService services.AuthService,
	userService services.UserService,
	loginLimiter *ratelimit.LoginRateLimiter,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		loginLimiter: loginLimiter,
	}
}

// Login godoc
// POST /api/auth/login
// Body: { "username": "...", "password": "..." }
//
// IP başına deneme sınırı vardır; aşılınca 429 ve Retry-After döner.
// Başarılı giriş sayacı sıfırlar.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromRequest(r)

	ip := ratelimit.ExtractIP(r)
	if h.loginLimiter != nil && !h.loginLimiter.Allow(ip) {
		retryAfter := h.loginLimiter.RetryAfterSeconds(ip)
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		pkg.ErrorWithMessage(w, http.StatusTooManyRequests,
			loc.TWithParams("auth.tooManyAttempts", map[string]string{"retry": ratelimit.FormatRetry(retryAfter)}))
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("common.invalidBody"))
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	if h.loginLimiter != nil {
		h.loginLimiter.Reset(ip)
	}
	pkg.JSON(w, http.StatusOK, resp)
}

// Logout godoc
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, i18n.FromRequest(r).T("common.userNotInContext"))
		return
	}

	if err := h.authService.Logout(r.Context(), claims.SessionID); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": i18n.FromRequest(r).T("auth.loggedOut")})
}

// meResponse, /api/users/me cevabı: kullanıcı + dashboard'un ihtiyaç duyduğu yetkiler.
type meResponse struct {
	models.User
	Permissions models.Permission `json:"permissions"`
	Columns     []string          `json:"columns"`
}

// Me godoc
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, i18n.FromRequest(r).T("common.userNotInContext"))
		return
	}

	user, err := h.userService.Get(r.Context(), claims.Username)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, meResponse{
		User:        *user,
		Permissions: user.Role.Permissions(),
		Columns:     models.VisibleColumns(user.Role),
	})
}

// ChangePassword godoc
// POST /api/users/me/password
// Body: { "current_password": "...", "new_password": "..." }
//
// Başarılı olunca bütün oturumlar kapanır; istemci yeniden giriş yapar.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromRequest(r)
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("common.userNotInContext"))
		return
	}

	var req models.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("common.invalidBody"))
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("auth.passwordsRequired"))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), claims.Username, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": loc.T("auth.passwordChanged")})
}
