// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
app:
  environment: staging
database:
  url: postgres://file/crm
redis:
  url: redis://localhost:6379/0
jwt:
  access_token_expire: 20m
`)
	t.Setenv("DATABASE_URL", "postgres://env/crm")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "  Boss@Example.com ")

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/crm", c.Database.URL)
	assert.Equal(t, "staging", c.App.Environment)
	assert.Equal(t, "boss@example.com", c.Auth.BootstrapAdminEmail)
	assert.Equal(t, 20*time.Minute, c.JWT.AccessTokenExpire)
	assert.Equal(t, 20*time.Minute, c.RoleCache.TTL)
	assert.True(t, c.Auth.LocalLogin)
	assert.Equal(t, "0.0.0.0:8080", c.Server.Address())
}

func TestLoad_ExplicitRoleCacheTTL(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/crm
redis:
  url: redis://localhost:6379/0
role_cache:
  ttl: 2m
`)

	c, err := load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, c.RoleCache.TTL)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing database",
			body: "redis:\n  url: redis://x\n",
			want: "DATABASE_URL is required",
		},
		{
			name: "no identity provider",
			body: "database:\n  url: postgres://x\nredis:\n  url: redis://x\nauth:\n  local_login: false\n",
			want: "at least one identity provider",
		},
		{
			name: "oidc without issuer",
			body: "database:\n  url: postgres://x\nredis:\n  url: redis://x\noidc:\n  enabled: true\n",
			want: "OIDC_ISSUER_URL",
		},
		{
			name: "cors wildcard with credentials",
			body: "database:\n  url: postgres://x\nredis:\n  url: redis://x\ncors:\n  allowed_origins: ['*']\n",
			want: "CORS wildcard",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.name == "missing database" {
				t.Setenv("DATABASE_URL", "")
			}
			_, err := load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
