package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYaml = `
env: dev
listen:
  port: "9090"
webhook:
  token: from-file
storage:
  driver: mongo
mongo:
  database: kids
telegram:
  chat_ids: [1, 2]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile(t *testing.T) {
	conf, err := Load(writeConfig(t, sampleYaml))
	require.NoError(t, err)

	assert.Equal(t, "dev", conf.Env)
	assert.Equal(t, "9090", conf.Listen.Port)
	assert.Equal(t, "0.0.0.0", conf.Listen.BindIp)
	assert.Equal(t, "from-file", conf.Webhook.Token)
	assert.Equal(t, "X-Kirvano-Signature", conf.Webhook.SignatureHeader)
	assert.Equal(t, 5*time.Minute, conf.Webhook.SignatureTolerance)
	assert.Equal(t, DriverMongo, conf.Storage.Driver)
	assert.Equal(t, "kids", conf.Mongo.Database)
	assert.Equal(t, []int64{1, 2}, conf.Telegram.ChatIds)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	t.Setenv("KIRVANO_TOKEN", "from-env")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-role")

	conf, err := Load(writeConfig(t, sampleYaml))
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Webhook.Token)
	assert.Equal(t, "https://example.supabase.co", conf.Supabase.URL)
	assert.Equal(t, "service-role", conf.Supabase.ServiceRoleKey)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("KIRVANO_TOKEN", "env-token")
	t.Setenv("STORAGE_DRIVER", "supabase")
	t.Setenv("API_TOKEN", "operator-token-0123456789")

	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", conf.Webhook.Token)
	assert.Equal(t, DriverSupabase, conf.Storage.Driver)
	require.Len(t, conf.Api.Users, 1)
	assert.Equal(t, "api", conf.Api.Users[0].Username)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	_, err := Load(writeConfig(t, "storage:\n  driver: redis\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver oneof")
}

func TestNoSecretDefaults(t *testing.T) {
	conf, err := Load(writeConfig(t, "env: local\n"))
	require.NoError(t, err)
	assert.Empty(t, conf.Webhook.Token)
	assert.Empty(t, conf.Supabase.ServiceRoleKey)
}
