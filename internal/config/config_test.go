package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/mindspend/internal/common"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("MINDSPEND_TEST_DIR", "/tmp/ms")

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/data/db.sqlite", filepath.Join(home, "data/db.sqlite")},
		{"$MINDSPEND_TEST_DIR/db", "/tmp/ms/db"},
		{"/abs/path", "/abs/path"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.in))
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultCoolOff, cfg.CoolOff)
	assert.Equal(t, DefaultServerAddr, cfg.Server.Addr)
	assert.False(t, cfg.Server.TLS)
	assert.True(t, strings.HasSuffix(cfg.Server.CertDir, filepath.Join("mindspend", "certs")))
	assert.Equal(t, DefaultProfileTTL, cfg.Cloud.ProfileTTL)
	assert.False(t, cfg.Cloud.Enabled())
	assert.False(t, cfg.Plaid.Configured())
	assert.True(t, filepath.IsAbs(cfg.Storage.Path))
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("storage.path", ":memory:")
	v.Set("check.cooloff", "3s")
	v.Set("cloud.database_url", "postgres://localhost/mindspend")
	v.Set("plaid.client_id", "id")
	v.Set("plaid.secret", "secret")
	v.Set("plaid.access_token", "token")

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, ":memory:", cfg.Storage.Path)
	assert.Equal(t, 3*time.Second, cfg.CoolOff)
	assert.True(t, cfg.Cloud.Enabled())
	assert.True(t, cfg.Plaid.Configured())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"negative cooloff", "check.cooloff", "-1s"},
		{"plaid environment", "plaid.environment", "moon"},
		{"log level", "logging.level", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			require.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestLoadSheetsConfig_FallsBackToIdentityClient(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")

	v := viper.New()
	v.Set("identity.client_id", "client")
	v.Set("identity.client_secret", "secret")

	cfg, err := LoadSheetsConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "client", cfg.ClientID)
	assert.Equal(t, "secret", cfg.ClientSecret)
	assert.NotEmpty(t, cfg.TokenFile)
}

func TestLoadSheetsConfig_Missing(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")

	_, err := LoadSheetsConfig(viper.New())
	require.Error(t, err)
}
