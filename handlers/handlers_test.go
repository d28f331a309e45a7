package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/models"
)

type fixedCount struct {
	conns int
	users []string
}

func (c fixedCount) ConnectionCount() int      { return c.conns }
func (c fixedCount) OnlineUsernames() []string { return c.users }

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("1.2.3", "sqlite", fixedCount{conns: 4, users: []string{"ana", "luis"}}).
		Health(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool           `json:"success"`
		Data    HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, HealthResponse{Status: "ok", Version: "1.2.3", Storage: "sqlite", Connections: 4, OnlineUsers: 2}, resp.Data)
}

func TestClaimsContext(t *testing.T) {
	_, ok := ClaimsFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithClaims(context.Background(), nil)
	_, ok = ClaimsFromContext(ctx)
	assert.False(t, ok)

	claims := &models.TokenClaims{Username: "ana", Role: models.RoleAsesor}
	got, ok := ClaimsFromContext(WithClaims(context.Background(), claims))
	require.True(t, ok)
	assert.Same(t, claims, got)
}

func TestHandlersRequireClaims(t *testing.T) {
	price := NewPriceHandler(nil, nopLogger())
	admin := NewAdminHandler(nil)
	auth := NewAuthHandler(nil, nil, nil)

	for name, h := range map[string]http.HandlerFunc{
		"prices.list":    price.List,
		"prices.update":  price.Update,
		"prices.export":  price.Export,
		"admin.delete":   admin.DeleteUser,
		"auth.logout":    auth.Logout,
		"auth.me":        auth.Me,
		"auth.changePwd": auth.ChangePassword,
	} {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func nopLogger() *zap.Logger { return zap.NewNop() }
