package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/i18n"
	"github.com/akinalp/pricelist/services"
)

// AdminHandler, kullanıcı yönetimi endpoint'leri.
// Route seviyesinde PermManageUsers ile korunur.
type AdminHandler struct {
	userService services.UserService
}

// NewAdminHandler, constructor.
func NewAdminHandler(userService services.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

// ListUsers: GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, users)
}

// CreateUser: POST /api/admin/users
// Body: { "username": "...", "password": "...", "role": "asesor" }
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, i18n.FromRequest(r).T("common.invalidBody"))
		return
	}

	user, err := h.userService.Create(r.Context(), &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, user)
}

// UpdateRole: PATCH /api/admin/users/{username}/role
// Body: { "role": "gerencia_media" }
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromRequest(r)
	actor, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("common.userNotInContext"))
		return
	}

	var req models.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("common.invalidBody"))
		return
	}

	user, err := h.userService.UpdateRole(r.Context(), actor.Username, r.PathValue("username"), req.Role)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, user)
}

// ResetPassword: POST /api/admin/users/{username}/password
// Body: { "password": "..." }
func (h *AdminHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromRequest(r)
	actor, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("common.userNotInContext"))
		return
	}

	var req models.ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("common.invalidBody"))
		return
	}

	if err := h.userService.ResetPassword(r.Context(), actor.Username, r.PathValue("username"), req.Password); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": loc.T("users.passwordReset")})
}

// DeleteUser: DELETE /api/admin/users/{username}
// Kullanıcının açık oturumları da kapanır.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromRequest(r)
	actor, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, loc.T("common.userNotInContext"))
		return
	}

	if err := h.userService.Delete(r.Context(), actor.Username, r.PathValue("username")); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": loc.T("users.deleted")})
}
