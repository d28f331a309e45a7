// Package models, uygulamanın domain modellerini tanımlar.
//
// Kullanıcılar ve oturumlar users.json / sessions.json dosyalarında,
// fiyat listesi products.csv dosyasında durur. Bu paketteki struct'lar
// API'nin ve servislerin gördüğü şekildir; dosya formatına dönüşüm
// repository katmanında yapılır.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MinPasswordLength, oluşturma ve değiştirmede istenen en kısa parola.
const MinPasswordLength = 6

// User, bir kullanıcıyı temsil eder.
type User struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // API response'a DAHİL ETME
	Role         Role       `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login"` // hiç giriş yapmadıysa nil
}

// CreateUserRequest, admin panelinden veya CLI'dan gelen kullanıcı oluşturma isteği.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

// Validate, isteği normalize eder ve kontrol eder.
//   - Username: 3-32 karakter, harf/rakam/_ . -
//   - Password: en az 6 karakter
//   - Role: boşsa asesor
func (r *CreateUserRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}

	role, err := ParseRole(string(r.Role))
	if err != nil {
		return err
	}
	r.Role = role
	return nil
}

// LoginRequest, giriş formundan gelen veri.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate, LoginRequest'in geçerli olup olmadığını kontrol eder.
func (r *LoginRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	if r.Username == "" {
		return fmt.Errorf("username is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ChangePasswordRequest, kullanıcının kendi parolasını değiştirmesi.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate, yeni parolanın kurallara uyduğunu kontrol eder.
func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return fmt.Errorf("current password is required")
	}
	return ValidatePassword(r.NewPassword)
}

// UpdateRoleRequest, admin'in rol değiştirme isteği.
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

// ResetPasswordRequest, admin'in başka bir kullanıcının parolasını sıfırlaması.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// ValidateUsername, kullanıcı adı kurallarını uygular.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < 3 || n > 32 {
		return fmt.Errorf("username must be between 3 and 32 characters")
	}
	for _, ch := range username {
		if !isValidUsernameChar(ch) {
			return fmt.Errorf("username can only contain letters, numbers, '_', '.' and '-'")
		}
	}
	return nil
}

// ValidatePassword, parola uzunluğunu kontrol eder.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

func isValidUsernameChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_' || ch == '.' || ch == '-'
}
