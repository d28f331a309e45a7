// Package config, uygulamanın tüm ayarlarını environment variable'lardan okur.
// Geliştirme ortamında .env dosyası da desteklenir (godotenv).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage driver isimleri.
const (
	StorageGCS    = "gcs"
	StorageLocal  = "local"
	StorageSQLite = "sqlite"
)

// Config, uygulamanın tüm konfigürasyonu.
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Session   SessionConfig
	Seed      SeedConfig
	Email     EmailConfig
	Log       LogConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host        string
	Port        int
	CORSOrigins []string
}

// StorageConfig, blob deposu ayarları.
//
// Driver "gcs" ise Bucket zorunludur. Kimlik bilgisi sırası:
// CredentialsFile, CredentialsJSON, hiçbiri yoksa ortamın varsayılan kimliği.
type StorageConfig struct {
	Driver          string
	Bucket          string
	Prefix          string // bucket içindeki kök (ör: nissan/prices)
	CredentialsFile string
	CredentialsJSON string
	LocalDir        string
	SQLitePath      string
	PriceListName   string // history dosya adının sabit kısmı
	EncryptionKey   string // 64 hex; boşsa users/sessions düz JSON yazılır
}

// SessionConfig, oturum ve token ayarları.
type SessionConfig struct {
	Secret        string // token imzalama anahtarı, GİZLİ
	TTL           time.Duration
	SweepInterval time.Duration
}

// SeedConfig, ilk açılışta oluşturulacak kullanıcılar.
type SeedConfig struct {
	AdminPassword string
	File          string // YAML kullanıcı listesi (opsiyonel)
}

// EmailConfig, fiyat listesi bildirimleri.
type EmailConfig struct {
	ResendAPIKey string
	FromEmail    string
	Recipients   []string
	AppURL       string
	Language     string
}

// Enabled, bildirim gönderimi için gereken alanların hepsi dolu mu.
func (c EmailConfig) Enabled() bool {
	return c.ResendAPIKey != "" && c.FromEmail != "" && len(c.Recipients) > 0
}

// LogConfig, zap ayarları.
type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig, fiyat listesi okuma cache'i.
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig, login brute-force koruması.
type RateLimitConfig struct {
	LoginMaxAttempts int
	LoginWindow      time.Duration
}

// Load, .env (varsa) ve environment'tan Config oluşturur.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv, verilen lookup fonksiyonundan Config oluşturur.
// Testler os.Environ yerine map tabanlı lookup verir.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if val, ok := lookup(key); ok {
			return val
		}
		return fallback
	}

	var errs []string
	getInt := func(key, fallback string) int {
		n, err := strconv.Atoi(get(key, fallback))
		if err != nil || n < 0 {
			errs = append(errs, fmt.Sprintf("invalid %s", key))
			return 0
		}
		return n
	}

	port := getInt("SERVER_PORT", "8501")
	ttlHours := getInt("SESSION_TTL_HOURS", "8")
	sweepMinutes := getInt("SESSION_SWEEP_MINUTES", "10")
	cacheSeconds := getInt("CACHE_TTL_SECONDS", "30")
	loginMax := getInt("LOGIN_MAX_ATTEMPTS", "5")
	loginWindow := getInt("LOGIN_WINDOW_MINUTES", "2")

	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(errs, ", "))
	}

	secret := get("SESSION_SECRET", "")
	if secret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if ttlHours == 0 {
		return nil, fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	if sweepMinutes == 0 {
		sweepMinutes = 10
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:        get("SERVER_HOST", "0.0.0.0"),
			Port:        port,
			CORSOrigins: splitList(get("CORS_ORIGINS", "http://localhost:8501")),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(get("STORAGE_DRIVER", StorageLocal)),
			Bucket:          get("GCS_BUCKET", "bk-vn"),
			Prefix:          strings.Trim(get("STORAGE_PREFIX", "nissan/prices"), "/"),
			CredentialsFile: get("GCP_CREDENTIALS_FILE", ""),
			CredentialsJSON: get("GCP_CREDENTIALS_JSON", ""),
			LocalDir:        get("LOCAL_STORAGE_DIR", "./data/bucket"),
			SQLitePath:      get("SQLITE_PATH", "./data/prices.db"),
			PriceListName:   get("PRICE_LIST_NAME", "nissan_price_list"),
			EncryptionKey:   get("STORAGE_ENCRYPTION_KEY", ""),
		},
		Session: SessionConfig{
			Secret:        secret,
			TTL:           time.Duration(ttlHours) * time.Hour,
			SweepInterval: time.Duration(sweepMinutes) * time.Minute,
		},
		Seed: SeedConfig{
			AdminPassword: get("ADMIN_PASSWORD", ""),
			File:          get("SEED_FILE", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: get("RESEND_API_KEY", ""),
			FromEmail:    get("RESEND_FROM", ""),
			Recipients:   splitList(get("NOTIFY_EMAILS", "")),
			AppURL:       get("APP_URL", ""),
			Language:     get("NOTIFY_LANGUAGE", "es"),
		},
		Log: LogConfig{
			Level:  get("LOG_LEVEL", "info"),
			Format: get("LOG_FORMAT", "json"),
		},
		Cache: CacheConfig{
			TTL: time.Duration(cacheSeconds) * time.Second,
		},
		RateLimit: RateLimitConfig{
			LoginMaxAttempts: loginMax,
			LoginWindow:      time.Duration(loginWindow) * time.Minute,
		},
	}

	switch cfg.Storage.Driver {
	case StorageGCS:
		if cfg.Storage.Bucket == "" {
			return nil, fmt.Errorf("GCS_BUCKET is required for the gcs storage driver")
		}
	case StorageLocal, StorageSQLite:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q (want gcs, local or sqlite)", cfg.Storage.Driver)
	}

	return cfg, nil
}

// Addr, dinlenecek adres (ör: "0.0.0.0:8501").
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
