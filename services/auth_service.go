// Package services, business logic katmanını barındırır.
//
// Handler (HTTP) ile Repository (dosyalar) arasında oturur:
//   - parola hash'leme ve doğrulama
//   - oturum ve token yönetimi
//   - fiyat listesi kaydı, history ve bildirimler
//
// Service http.Request bilmez, doğrudan bucket'a yazmaz; repository
// interface'lerini kullanır.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/repository"
	"github.com/akinalp/pricelist/ws"
)

const tokenIssuer = "pricelist"

// AuthService, giriş/çıkış ve token doğrulama.
type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	// Logout, oturumu siler; bilinmeyen oturum hata değildir.
	Logout(ctx context.Context, sessionID string) error
	// ValidateToken, token imzasını VE oturumu kontrol eder. Dönen claims'teki
	// Role, users.json'daki güncel roldür.
	ValidateToken(ctx context.Context, token string) (*models.TokenClaims, error)
	// ChangePassword, başarılı olursa kullanıcının bütün oturumları kapanır.
	ChangePassword(ctx context.Context, username string, req *models.ChangePasswordRequest) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hub         ws.EventPublisher
	secret      []byte
	ttl         time.Duration
	now         func() time.Time
	log         *zap.Logger
}

// NewAuthService, constructor.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hub ws.EventPublisher,
	secret string,
	ttl time.Duration,
	logger *zap.Logger,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hub:         hub,
		secret:      []byte(secret),
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Named("auth"),
	}
}

var errInvalidCredentials = fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	ok, needsUpgrade := VerifyPassword(req.Password, user.PasswordHash)
	if !ok {
		s.log.Info("login failed", zap.String("username", req.Username))
		return nil, errInvalidCredentials
	}

	var newHash string
	if needsUpgrade {
		if newHash, err = HashPassword(req.Password); err != nil {
			return nil, err
		}
	}

	now := s.now()
	user, err = s.userRepo.RecordLogin(ctx, req.Username, user.PasswordHash, newHash, now)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) || errors.Is(err, pkg.ErrUnauthorized) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	if newHash != "" {
		s.log.Info("upgraded legacy password hash", zap.String("username", user.Username))
	}

	session := &models.Session{
		ID:        uuid.NewString(),
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Oturum yazılmadan önce çalışan bir rol/parola değişikliği bu oturumu
	// iptal edemedi; kayıt değiştiyse oturum geri alınır.
	if err := s.confirmLogin(ctx, user, session); err != nil {
		return nil, err
	}

	token, err := s.signToken(user, session)
	if err != nil {
		return nil, err
	}

	s.log.Info("login", zap.String("username", user.Username), zap.String("role", string(user.Role)))

	user.PasswordHash = ""
	return &models.LoginResponse{Token: token, ExpiresAt: session.ExpiresAt, User: *user}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.hub.RevokeSession(sessionID, "logout")
	return nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.SessionID == "" {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: session not found", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if session.Expired(s.now()) {
		if err := s.sessionRepo.Delete(ctx, session.ID); err != nil {
			s.log.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: session expired", pkg.ErrUnauthorized)
	}
	if session.Username != claims.Username {
		return nil, fmt.Errorf("%w: session mismatch", pkg.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	claims.Role = user.Role
	return claims, nil
}

func (s *authService) ChangePassword(ctx context.Context, username string, req *models.ChangePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}

	if ok, _ := VerifyPassword(req.CurrentPassword, user.PasswordHash); !ok {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrUnauthorized)
	}
	if req.CurrentPassword == req.NewPassword {
		return fmt.Errorf("%w: new password must be different from current password", pkg.ErrBadRequest)
	}

	hash, err := HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, username, user.PasswordHash, hash); err != nil {
		return err
	}

	return revokeSessions(ctx, s.sessionRepo, s.hub, username, "password_changed")
}

// ─── Private Helpers ───

func (s *authService) signToken(user *models.User, session *models.Session) (string, error) {
	claims := &models.TokenClaims{
		SessionID: session.ID,
		Username:  user.Username,
		Role:      user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// confirmLogin, yeni oturum yazıldıktan sonra kullanıcı kaydını tekrar
// okur. Rol veya parola RecordLogin'den beri değiştiyse oturum silinir.
func (s *authService) confirmLogin(ctx context.Context, user *models.User, session *models.Session) error {
	current, err := s.userRepo.GetByUsername(ctx, user.Username)
	if err == nil && current.Role == user.Role && current.PasswordHash == user.PasswordHash {
		return nil
	}
	s.dropSession(ctx, session.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}
	s.log.Info("login aborted, account changed", zap.String("username", user.Username))
	return fmt.Errorf("%w: account changed during login, please retry", pkg.ErrUnauthorized)
}

func (s *authService) dropSession(ctx context.Context, id string) {
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		s.log.Warn("failed to delete session", zap.String("session_id", id), zap.Error(err))
	}
}

// revokeSessions, kullanıcının oturumlarını siler ve açık WebSocket
// bağlantılarını kapatır.
func revokeSessions(
	ctx context.Context,
	sessionRepo repository.SessionRepository,
	hub ws.EventPublisher,
	username, reason string,
) error {
	if _, err := sessionRepo.DeleteByUsername(ctx, username); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	hub.RevokeUser(username, reason)
	return nil
}
