package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv(EnvBotToken, "token")
	t.Setenv(EnvApplicationId, "app")
	t.Setenv(EnvMongoUri, "mongodb://localhost:27017")
}

func TestParse_Defaults(t *testing.T) {
	setRequired(t)

	c, err := Parse()
	require.NoError(t, err)
	require.Equal(t, "rabbit", c.MongoDatabase)
	require.Equal(t, "8080", c.MonitoringPort)
	require.Equal(t, "3000", c.DashboardPort)
	require.Equal(t, "http://localhost:3000", c.DashboardUrl)
	require.Equal(t, "transcripts", c.TranscriptDir)
	require.Equal(t, 10*time.Minute, c.AutoCloseInterval)
	require.False(t, c.Production())
	require.False(t, c.DashboardEnabled())
}

func TestParse_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvDashboardUrl, "https://dash.example/")
	t.Setenv(EnvAutoCloseInterval, "1h")
	t.Setenv(EnvEnvironment, "Production")
	t.Setenv(EnvClientId, "id")
	t.Setenv(EnvClientSecret, "secret")
	t.Setenv(EnvSessionSecret, "session")

	c, err := Parse()
	require.NoError(t, err)
	require.Equal(t, "https://dash.example", c.DashboardUrl)
	require.Equal(t, time.Hour, c.AutoCloseInterval)
	require.True(t, c.Production())
	require.True(t, c.DashboardEnabled())
}

func TestParse_Missing(t *testing.T) {
	t.Setenv(EnvBotToken, "")
	t.Setenv(EnvApplicationId, "app")
	t.Setenv(EnvMongoUri, "")

	_, err := Parse()
	require.EqualError(t, err, "missing required environment variables: BOT_TOKEN, MONGO_URI")
}

func TestParse_BadInterval(t *testing.T) {
	setRequired(t)

	for _, v := range []string{"soon", "0s", "-1m"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv(EnvAutoCloseInterval, v)
			_, err := Parse()
			require.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(file, []byte("RABBIT_TEST_VALUE=from-file\n"), 0o600))

	t.Setenv("RABBIT_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("RABBIT_TEST_VALUE"))
	require.NoError(t, LoadDotEnv(file))
	require.Equal(t, "from-file", os.Getenv("RABBIT_TEST_VALUE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
