package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the configuration of the bot process.
type Config struct {
	BotToken      string
	ApplicationId string

	MongoUri      string
	MongoDatabase string

	// RedisUrl is optional. Without it guilds are not cached and dashboard sessions are held in memory.
	RedisUrl string

	MonitoringPort string

	DashboardPort string
	DashboardUrl  string
	ClientId      string
	ClientSecret  string
	SessionSecret string

	TranscriptDir     string
	AutoCloseInterval time.Duration

	Environment string
}

// Production reports whether the bot is running in production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Environment, environmentProduction)
}

// DashboardEnabled reports whether enough is configured to serve the dashboard.
func (c *Config) DashboardEnabled() bool {
	return c.ClientId != "" && c.ClientSecret != "" && c.SessionSecret != ""
}

// LoadDotEnv loads the given files (".env" when none are given) into the environment. Missing files are ignored and
// variables that are already set are kept.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// Parse reads the configuration from the environment.
func Parse() (*Config, error) {
	c := &Config{
		BotToken:       os.Getenv(EnvBotToken),
		ApplicationId:  os.Getenv(EnvApplicationId),
		MongoUri:       os.Getenv(EnvMongoUri),
		MongoDatabase:  getenv(EnvMongoDatabase, defaultMongoDatabase),
		RedisUrl:       os.Getenv(EnvRedisUrl),
		MonitoringPort: getenv(EnvMonitoringPort, defaultMonitoringPort),
		DashboardPort:  getenv(EnvDashboardPort, defaultDashboardPort),
		DashboardUrl:   strings.TrimSuffix(os.Getenv(EnvDashboardUrl), "/"),
		ClientId:       os.Getenv(EnvClientId),
		ClientSecret:   os.Getenv(EnvClientSecret),
		SessionSecret:  os.Getenv(EnvSessionSecret),
		TranscriptDir:  getenv(EnvTranscriptDir, defaultTranscriptDir),
		Environment:    os.Getenv(EnvEnvironment),
	}

	interval, err := time.ParseDuration(getenv(EnvAutoCloseInterval, defaultAutoCloseInterval))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvAutoCloseInterval, err)
	} else if interval <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive", EnvAutoCloseInterval)
	}
	c.AutoCloseInterval = interval

	if c.DashboardUrl == "" {
		c.DashboardUrl = "http://localhost:" + c.DashboardPort
	}

	missing := make([]string, 0)
	for env, v := range map[string]string{
		EnvBotToken:      c.BotToken,
		EnvApplicationId: c.ApplicationId,
		EnvMongoUri:      c.MongoUri,
	} {
		if v == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return c, nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
