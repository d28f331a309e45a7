// Package main: HTTP route kaydı.
//
// initRoutes, API endpoint'lerini mux'a bağlar. Middleware chain helper'ları:
//   - auth: bearer token + açık oturum
//   - authPerm: auth + rol yetkisi
package main

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/middleware"
	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/services"
	"github.com/akinalp/pricelist/static"
)

// initRoutes, middleware chain'i kurar ve bütün endpoint'leri mux'a bağlar.
//
// Literal path'ler ("/api/prices/export") parametrik path'lerle çakışmaz;
// Go 1.22 router en spesifik pattern'i seçer.
func initRoutes(mux *http.ServeMux, h *Handlers, authService services.AuthService) {
	authMw := middleware.NewAuthMiddleware(authService)
	permMw := middleware.NewPermissionMiddleware()

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(http.HandlerFunc(handler))
	}
	authPerm := func(perm models.Permission, handler http.HandlerFunc) http.Handler {
		return authMw.Require(permMw.Require(perm, http.HandlerFunc(handler)))
	}

	// Health
	mux.HandleFunc("GET /api/health", h.Health.Health)

	// Auth
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.Handle("POST /api/auth/logout", auth(h.Auth.Logout))

	// Me
	mux.Handle("GET /api/users/me", auth(h.Auth.Me))
	mux.Handle("POST /api/users/me/password", auth(h.Auth.ChangePassword))

	// Prices
	mux.Handle("GET /api/prices", authPerm(models.PermViewPrices, h.Price.List))
	mux.Handle("PUT /api/prices", authPerm(models.PermEditPrices, h.Price.Update))
	mux.Handle("POST /api/prices/import", authPerm(models.PermEditPrices, h.Price.Import))
	mux.Handle("GET /api/prices/export", authPerm(models.PermViewPrices, h.Price.Export))
	mux.Handle("GET /api/prices/summary", authPerm(models.PermViewPrices, h.Price.Summary))

	// History
	mux.Handle("GET /api/prices/history", authPerm(models.PermViewHistory, h.Price.ListHistory))
	mux.Handle("GET /api/prices/history/{name}", authPerm(models.PermViewHistory, h.Price.GetHistory))
	mux.Handle("POST /api/prices/history/{name}/restore", authPerm(models.PermRestoreHistory, h.Price.RestoreHistory))

	// Admin: kullanıcı yönetimi
	mux.Handle("GET /api/admin/users", authPerm(models.PermManageUsers, h.Admin.ListUsers))
	mux.Handle("POST /api/admin/users", authPerm(models.PermManageUsers, h.Admin.CreateUser))
	mux.Handle("PATCH /api/admin/users/{username}/role", authPerm(models.PermManageUsers, h.Admin.UpdateRole))
	mux.Handle("POST /api/admin/users/{username}/password", authPerm(models.PermManageUsers, h.Admin.ResetPassword))
	mux.Handle("DELETE /api/admin/users/{username}", authPerm(models.PermManageUsers, h.Admin.DeleteUser))

	// WebSocket: tarayıcı upgrade sırasında header gönderemez, token query'de gelir
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)

	// Bilinmeyen API path'i dashboard'a düşmesin
	mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		pkg.ErrorWithMessage(w, http.StatusNotFound, "not found")
	})

	// Dashboard
	mux.Handle("GET /", static.Handler())
}

// newHTTPHandler, route'ları, CORS'u ve request loglamayı tek handler'da toplar.
func newHTTPHandler(h *Handlers, authService services.AuthService, allowedOrigins []string, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	initRoutes(mux, h, authService)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Retry-After", "Content-Disposition"},
		AllowCredentials: true,
	})

	return middleware.Logging(logger)(corsHandler.Handler(mux))
}
