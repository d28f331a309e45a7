package models

import (
	"fmt"
	"strings"
)

// Role, kullanıcının fiyat listesi üzerindeki yetki seviyesini belirler.
// Roller sabittir; veritabanında ayrı bir tablo yoktur, users.json içinde
// kullanıcı kaydının "role" alanında string olarak durur.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleGerenciaVentas Role = "gerencia_ventas"
	RoleGerenciaMedia  Role = "gerencia_media"
	RoleAsesor         Role = "asesor"
)

// DefaultRole, rol belirtilmeden oluşturulan kullanıcının rolü.
const DefaultRole = RoleAsesor

// Permission, rol yetkilerini bit flag olarak temsil eder.
//
// Kontrol: (permissions & PermEditPrices) != 0 → bu yetki var mı?
// Ekleme: permissions | PermEditPrices
type Permission int64

const (
	PermViewPrices            Permission = 1 << iota // 1
	PermViewManagementColumns                        // 2   Dscto_Gerencia, Precio_Gerencia
	PermViewAllColumns                               // 4   Precio_Nibol, Dsct_Seguro, Dscto_Impuesto
	PermEditPrices                                   // 8   düzenleme + CSV import
	PermViewHistory                                  // 16
	PermRestoreHistory                               // 32
	PermManageUsers                                  // 64
	PermAdmin                                        // 128 her şeye izin verir
)

// PermAll, tüm yetkilerin toplamıdır.
const PermAll Permission = (1 << 8) - 1

// Has, belirli bir yetkinin var olup olmadığını kontrol eder.
func (p Permission) Has(perm Permission) bool {
	if p&PermAdmin != 0 {
		return true
	}
	return p&perm == perm
}

var rolePermissions = map[Role]Permission{
	RoleAdmin: PermAll,
	RoleGerenciaVentas: PermViewPrices | PermViewManagementColumns | PermViewAllColumns |
		PermEditPrices | PermViewHistory,
	RoleGerenciaMedia: PermViewPrices | PermViewManagementColumns | PermViewHistory,
	RoleAsesor:        PermViewPrices,
}

// Roles, geçerli rolleri yetkiden az yetkiye doğru sıralı döner.
func Roles() []Role {
	return []Role{RoleAdmin, RoleGerenciaVentas, RoleGerenciaMedia, RoleAsesor}
}

// RoleNames, Roles() listesini virgülle ayrılmış olarak döner (hata ve
// yardım metinleri için).
func RoleNames() string {
	names := make([]string, 0, len(rolePermissions))
	for _, r := range Roles() {
		names = append(names, string(r))
	}
	return strings.Join(names, ", ")
}

// Valid, rolün tanımlı rollerden biri olup olmadığını döner.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions, rolün yetki setini döner. Tanımsız rol hiçbir yetkiye sahip değildir.
func (r Role) Permissions() Permission {
	return rolePermissions[r]
}

// Can, kısayol: r.Permissions().Has(perm)
func (r Role) Can(perm Permission) bool {
	return r.Permissions().Has(perm)
}

// ParseRole, dışarıdan gelen rol adını doğrular. Boş string DefaultRole olur.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return DefaultRole, nil
	}
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (valid: %s)", s, RoleNames())
	}
	return r, nil
}
