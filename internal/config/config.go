package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/mindspend/internal/common"
	"github.com/spf13/viper"
)

// Defaults for values the config file may omit.
const (
	DefaultStoragePath  = "~/.local/share/mindspend/mindspend.db"
	DefaultCoolOff      = 10 * time.Second
	DefaultServerAddr   = ":8090"
	DefaultCallbackAddr = "localhost:8080"
	DefaultProfileTTL   = 10 * time.Minute
	DefaultTokenFile    = "~/.config/mindspend/google_token.json"
	DefaultCertDir      = "~/.config/mindspend/certs"
)

// Config is the typed view of everything viper knows about.
type Config struct {
	Storage  StorageConfig
	Cloud    CloudConfig
	Identity IdentityConfig
	Plaid    PlaidConfig
	Server   ServerConfig
	Logging  LoggingConfig
	CoolOff  time.Duration
}

// StorageConfig locates the device-local database.
type StorageConfig struct {
	Path string
}

// CloudConfig holds the signed-in backend connections.
type CloudConfig struct {
	DatabaseURL string
	RedisURL    string
	ProfileTTL  time.Duration
}

// Enabled reports whether a cloud database is configured.
func (c CloudConfig) Enabled() bool {
	return c.DatabaseURL != ""
}

// IdentityConfig holds the identity provider and Google sign-in settings.
type IdentityConfig struct {
	APIKey       string
	ClientID     string
	ClientSecret string
	CallbackAddr string
	TokenFile    string
}

// PlaidConfig holds bank feed credentials.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string
	AccessToken string
}

// Configured reports whether enough is set to call Plaid.
func (c PlaidConfig) Configured() bool {
	return c.ClientID != "" && c.Secret != "" && c.AccessToken != ""
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string
	CertDir        string
	AllowedOrigins []string
	TLS            bool
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", DefaultStoragePath)
	v.SetDefault("check.cooloff", DefaultCoolOff)
	v.SetDefault("cloud.profile_ttl", DefaultProfileTTL)
	v.SetDefault("identity.callback_addr", DefaultCallbackAddr)
	v.SetDefault("identity.token_file", DefaultTokenFile)
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cert_dir", DefaultCertDir)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads a Config from v, expanding paths and validating durations.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Storage: StorageConfig{
			Path: storagePath(v.GetString("storage.path")),
		},
		Cloud: CloudConfig{
			DatabaseURL: v.GetString("cloud.database_url"),
			RedisURL:    v.GetString("cloud.redis_url"),
			ProfileTTL:  v.GetDuration("cloud.profile_ttl"),
		},
		Identity: IdentityConfig{
			APIKey:       v.GetString("identity.api_key"),
			ClientID:     v.GetString("identity.client_id"),
			ClientSecret: v.GetString("identity.client_secret"),
			CallbackAddr: v.GetString("identity.callback_addr"),
			TokenFile:    ExpandPath(v.GetString("identity.token_file")),
		},
		Plaid: PlaidConfig{
			ClientID:    v.GetString("plaid.client_id"),
			Secret:      v.GetString("plaid.secret"),
			Environment: v.GetString("plaid.environment"),
			AccessToken: v.GetString("plaid.access_token"),
		},
		Server: ServerConfig{
			Addr:           v.GetString("server.addr"),
			AllowedOrigins: v.GetStringSlice("server.allowed_origins"),
			TLS:            v.GetBool("server.tls"),
			CertDir:        ExpandPath(v.GetString("server.cert_dir")),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		CoolOff: v.GetDuration("check.cooloff"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	if c.CoolOff < 0 {
		return fmt.Errorf("%w: check.cooloff cannot be negative", common.ErrInvalidConfig)
	}
	if c.Cloud.ProfileTTL < 0 {
		return fmt.Errorf("%w: cloud.profile_ttl cannot be negative", common.ErrInvalidConfig)
	}
	switch strings.ToLower(c.Plaid.Environment) {
	case "sandbox", "production":
	default:
		return fmt.Errorf("%w: unknown plaid.environment %q", common.ErrInvalidConfig, c.Plaid.Environment)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// storagePath expands path unless it names an in-memory or URI database.
func storagePath(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return filepath.Clean(ExpandPath(path))
}
