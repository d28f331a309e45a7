package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/repository"
	"github.com/akinalp/pricelist/ws"
)

// UserService, kullanıcı yönetimi (admin paneli ve CLI).
//
// actor, işlemi yapan kullanıcıdır; CLI'dan gelen çağrılarda boş string
// geçilir ve kendini silme/düşürme kontrolü atlanır. Son admin koruması
// her durumda uygulanır.
type UserService interface {
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	UpdateRole(ctx context.Context, actor, username string, role models.Role) (*models.User, error)
	ResetPassword(ctx context.Context, actor, username, password string) error
	Delete(ctx context.Context, actor, username string) error
	// EnsureDefaults, users.json boşsa ilk kullanıcıları oluşturur.
	EnsureDefaults(ctx context.Context, seed SeedOptions) error
}

// SeedOptions, ilk açılış kullanıcıları.
type SeedOptions struct {
	File          string // YAML; doluysa AdminPassword kullanılmaz
	AdminPassword string // boşsa rastgele üretilir ve bir kez loglanır
}

// seedFile, SEED_FILE formatı:
//
//	users:
//	  - username: admin
//	    password: cambiar123
//	    role: admin
type seedFile struct {
	Users []models.CreateUserRequest `yaml:"users"`
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hub         ws.EventPublisher
	now         func() time.Time
	log         *zap.Logger

	// mu, son admin kontrolü ile yazma arasını korur.
	mu sync.Mutex
}

// NewUserService, constructor.
func NewUserService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	hub ws.EventPublisher,
	logger *zap.Logger,
) UserService {
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hub:         hub,
		now:         func() time.Time { return time.Now().UTC() },
		log:         logger.Named("users"),
	}
}

func (s *userService) List(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) Get(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Create(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: hash,
		Role:         req.Role,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	s.log.Info("user created", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateRole(ctx context.Context, actor, username string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", pkg.ErrBadRequest, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		user.PasswordHash = ""
		return user, nil
	}

	if user.Role == models.RoleAdmin {
		if actor == username {
			return nil, fmt.Errorf("%w: you cannot change your own admin role", pkg.ErrForbidden)
		}
		if err := s.ensureAnotherAdmin(ctx, username); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.UpdateRole(ctx, username, role); err != nil {
		return nil, err
	}
	user.Role = role
	if err := revokeSessions(ctx, s.sessionRepo, s.hub, username, "role_changed"); err != nil {
		return nil, err
	}

	s.log.Info("role changed",
		zap.String("username", username),
		zap.String("role", string(role)),
		zap.String("by", actor),
	)
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) ResetPassword(ctx context.Context, actor, username, password string) error {
	if err := models.ValidatePassword(password); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, username, "", hash); err != nil {
		return err
	}

	s.log.Info("password reset", zap.String("username", username), zap.String("by", actor))
	return revokeSessions(ctx, s.sessionRepo, s.hub, username, "password_reset")
}

func (s *userService) Delete(ctx context.Context, actor, username string) error {
	if actor != "" && actor == username {
		return fmt.Errorf("%w: you cannot delete your own account", pkg.ErrForbidden)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, username); err != nil {
			return err
		}
	}

	if err := s.userRepo.Delete(ctx, username); err != nil {
		return err
	}

	s.log.Info("user deleted", zap.String("username", username), zap.String("by", actor))
	return revokeSessions(ctx, s.sessionRepo, s.hub, username, "user_deleted")
}

// ensureAnotherAdmin, username dışında en az bir admin yoksa hata döner.
func (s *userService) ensureAnotherAdmin(ctx context.Context, username string) error {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Role == models.RoleAdmin && u.Username != username {
			return nil
		}
	}
	return fmt.Errorf("%w: the last admin cannot be removed or demoted", pkg.ErrBadRequest)
}

func (s *userService) EnsureDefaults(ctx context.Context, seed SeedOptions) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if seed.File != "" {
		return s.seedFromFile(ctx, seed.File)
	}

	password := seed.AdminPassword
	generated := password == ""
	if generated {
		if password, err = generatePassword(); err != nil {
			return err
		}
	}

	if _, err := s.Create(ctx, &models.CreateUserRequest{
		Username: "admin",
		Password: password,
		Role:     models.RoleAdmin,
	}); err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	if generated {
		s.log.Warn("created default admin with a generated password; change it after the first login",
			zap.String("username", "admin"),
			zap.String("password", password),
		)
	}
	return nil
}

func (s *userService) seedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	hasAdmin := false
	for _, u := range seed.Users {
		hasAdmin = hasAdmin || u.Role == models.RoleAdmin
	}
	if !hasAdmin {
		return errors.New("seed file must contain at least one admin user")
	}

	for i := range seed.Users {
		if _, err := s.Create(ctx, &seed.Users[i]); err != nil {
			return fmt.Errorf("seed user %d: %w", i+1, err)
		}
	}
	s.log.Info("seeded users from file", zap.String("file", path), zap.Int("count", len(seed.Users)))
	return nil
}

func generatePassword() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
