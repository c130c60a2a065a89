package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Token store backends.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	APIBaseURL         string        `yaml:"api_base_url"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	DefaultCountryCode string        `yaml:"default_country_code"`

	TokenStore      string `yaml:"token_store"` // file, redis, postgres, memory
	TokenFile       string `yaml:"token_file"`
	TokenPassphrase string `yaml:"-"`           // env only; when set the file store seals values
	RedisURI        string `yaml:"redis_uri"`
	PostgresURI     string `yaml:"postgres_uri"`
	MongoURI        string `yaml:"mongo_uri"` // chat transcript archive, empty disables it

	PhoneProvider      string `yaml:"phone_provider"` // firebase or fake
	FirebaseAPIKey     string `yaml:"-"`
	IdentityBaseURL    string `yaml:"identity_base_url"`
	SecureTokenBaseURL string `yaml:"secure_token_base_url"`
	RecaptchaToken     string `yaml:"-"`

	ChatWSURL string `yaml:"chat_ws_url"`

	CloudinaryName      string `yaml:"cloudinary_cloud_name"`
	CloudinaryAPIKey    string `yaml:"-"`
	CloudinaryAPISecret string `yaml:"-"`
	UploadFolder        string `yaml:"upload_folder"`

	Environment string `yaml:"env"` // production, development, etc.
	LogLevel    string `yaml:"log_level"`
}

// Load builds the config from defaults, then the optional YAML file named by
// GIG_CONFIG (default gig.yaml), then environment overrides. A missing file is
// not an error; a malformed one is.
func Load() (*Config, error) {
	cfg := defaults()

	path := getEnv("GIG_CONFIG", "gig.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	applyEnv(cfg)

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.TokenStore = strings.ToLower(strings.TrimSpace(cfg.TokenStore))
	cfg.Environment = strings.ToLower(strings.TrimSpace(cfg.Environment))
	if cfg.ChatWSURL == "" {
		cfg.ChatWSURL = deriveWSURL(cfg.APIBaseURL)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		APIBaseURL:         "http://localhost:5000/api/v1",
		RequestTimeout:     30 * time.Second,
		DefaultCountryCode: "91",
		TokenStore:         StoreFile,
		TokenFile:          defaultTokenFile(),
		RedisURI:           "redis://localhost:6379/0",
		PostgresURI:        "postgres://localhost:5432/gig?sslmode=disable",
		PhoneProvider:      "firebase",
		IdentityBaseURL:    "https://identitytoolkit.googleapis.com/v1",
		SecureTokenBaseURL: "https://securetoken.googleapis.com/v1",
		UploadFolder:       "gig",
		Environment:        "development",
		LogLevel:           "info",
	}
}

func applyEnv(cfg *Config) {
	cfg.APIBaseURL = getEnv("GIG_API_BASE_URL", cfg.APIBaseURL)
	if v := os.Getenv("GIG_REQUEST_TIMEOUT"); v != "" {
		if d, err := parseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	cfg.DefaultCountryCode = getEnv("GIG_DEFAULT_COUNTRY_CODE", cfg.DefaultCountryCode)

	cfg.TokenStore = getEnv("GIG_TOKEN_STORE", cfg.TokenStore)
	cfg.TokenFile = getEnv("GIG_TOKEN_FILE", cfg.TokenFile)
	cfg.TokenPassphrase = getEnv("GIG_TOKEN_PASSPHRASE", cfg.TokenPassphrase)
	cfg.RedisURI = getEnv("REDIS_URI", cfg.RedisURI)
	cfg.PostgresURI = getEnv("POSTGRES_URI", cfg.PostgresURI)
	cfg.MongoURI = getEnv("MONGODB_URI", getEnv("MONGO_URI", cfg.MongoURI))

	cfg.PhoneProvider = getEnv("GIG_PHONE_PROVIDER", cfg.PhoneProvider)
	cfg.FirebaseAPIKey = getEnv("FIREBASE_API_KEY", cfg.FirebaseAPIKey)
	cfg.IdentityBaseURL = getEnv("FIREBASE_IDENTITY_URL", cfg.IdentityBaseURL)
	cfg.SecureTokenBaseURL = getEnv("FIREBASE_SECURE_TOKEN_URL", cfg.SecureTokenBaseURL)
	cfg.RecaptchaToken = getEnv("FIREBASE_RECAPTCHA_TOKEN", cfg.RecaptchaToken)

	cfg.ChatWSURL = getEnv("GIG_CHAT_WS_URL", cfg.ChatWSURL)

	cfg.CloudinaryName = getEnv("CLOUDINARY_CLOUD_NAME", cfg.CloudinaryName)
	cfg.CloudinaryAPIKey = getEnv("CLOUDINARY_API_KEY", cfg.CloudinaryAPIKey)
	cfg.CloudinaryAPISecret = getEnv("CLOUDINARY_API_SECRET", cfg.CloudinaryAPISecret)
	cfg.UploadFolder = getEnv("GIG_UPLOAD_FOLDER", cfg.UploadFolder)

	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// Validate rejects configurations the client cannot start with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: api base url %q is not absolute", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("config: request timeout must be positive")
	}
	switch c.TokenStore {
	case StoreFile:
		if c.TokenFile == "" {
			return errors.New("config: token file path is empty")
		}
	case StoreRedis:
		if c.RedisURI == "" {
			return errors.New("config: REDIS_URI is required for the redis token store")
		}
	case StorePostgres:
		if c.PostgresURI == "" {
			return errors.New("config: POSTGRES_URI is required for the postgres token store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown token store %q", c.TokenStore)
	}
	switch c.PhoneProvider {
	case "firebase":
		if c.FirebaseAPIKey == "" {
			return errors.New("config: FIREBASE_API_KEY is required for the firebase phone provider")
		}
	case "fake":
	default:
		return fmt.Errorf("config: unknown phone provider %q", c.PhoneProvider)
	}
	return nil
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether all upload credentials are present.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// deriveWSURL maps http(s)://host/api/v1 to ws(s)://host/ws/chat.
func deriveWSURL(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws/chat"
	u.RawQuery = ""
	return u.String()
}

// parseDuration accepts Go durations and bare milliseconds.
func parseDuration(v string) (time.Duration, error) {
	if ms, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".gig", "session.json")
	}
	return filepath.Join(home, ".gig", "session.json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
