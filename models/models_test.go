package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRolePermissions(t *testing.T) {
	assert.True(t, RoleAdmin.Can(PermManageUsers))
	assert.True(t, RoleAdmin.Can(PermRestoreHistory))

	assert.True(t, RoleGerenciaVentas.Can(PermEditPrices))
	assert.True(t, RoleGerenciaVentas.Can(PermViewHistory))
	assert.False(t, RoleGerenciaVentas.Can(PermRestoreHistory))
	assert.False(t, RoleGerenciaVentas.Can(PermManageUsers))

	assert.False(t, RoleGerenciaMedia.Can(PermEditPrices))
	assert.True(t, RoleGerenciaMedia.Can(PermViewHistory))

	assert.True(t, RoleAsesor.Can(PermViewPrices))
	assert.False(t, RoleAsesor.Can(PermViewHistory))

	assert.False(t, Role("root").Can(PermViewPrices))
	assert.False(t, RoleAsesor.Can(PermViewPrices|PermEditPrices), "all requested bits must be present")
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleAsesor, r)

	r, err = ParseRole("gerencia_media")
	require.NoError(t, err)
	assert.Equal(t, RoleGerenciaMedia, r)

	_, err = ParseRole("Admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin, gerencia_ventas, gerencia_media, asesor")

	for _, r := range Roles() {
		assert.True(t, r.Valid(), r)
	}
	assert.Len(t, Roles(), len(rolePermissions))
}

func TestCreateUserRequestValidate(t *testing.T) {
	req := CreateUserRequest{Username: "  maria.lopez-2 ", Password: "secret"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "maria.lopez-2", req.Username)
	assert.Equal(t, RoleAsesor, req.Role)

	for _, bad := range []CreateUserRequest{
		{Username: "ab", Password: "secret"},
		{Username: "maria lopez", Password: "secret"},
		{Username: "maría", Password: "secret"},
		{Username: "maria", Password: "12345"},
		{Username: "maria", Password: "secret", Role: "jefe"},
	} {
		assert.Error(t, bad.Validate(), "%+v", bad)
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := Session{ExpiresAt: now}
	assert.True(t, s.Expired(now))
	assert.False(t, s.Expired(now.Add(-time.Second)))
}

func TestHistoryNames(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 5, 42, 0, time.UTC)
	name := HistoryName(at, "nissan_price_list")
	assert.Equal(t, "2026-03-01_09-05_nissan_price_list.csv", name)

	parsed, ok := ParseHistoryTime(name)
	require.True(t, ok)
	assert.Equal(t, at.Truncate(time.Minute), parsed)

	_, ok = ParseHistoryTime("manual_backup.csv")
	assert.False(t, ok)

	assert.NoError(t, ValidateHistoryName(name))
	for _, bad := range []string{"", "../users.json", "a/b.csv", `a\b.csv`, "x.txt", "..csv"} {
		assert.Error(t, ValidateHistoryName(bad), bad)
	}
}
