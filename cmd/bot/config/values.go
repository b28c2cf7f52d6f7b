package config

const (
	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMongoDatabase is the environment variable for the MongoDB database name.
	EnvMongoDatabase = `MONGO_DATABASE`

	// EnvRedisUrl is the environment variable for the Redis URL.
	EnvRedisUrl = `REDIS_URL`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	EnvDashboardPort = `DASHBOARD_PORT`
	EnvDashboardUrl  = `DASHBOARD_URL`
	EnvClientId      = `CLIENT_ID`
	EnvClientSecret  = `CLIENT_SECRET`
	EnvSessionSecret = `SESSION_SECRET`

	// EnvTranscriptDir is the environment variable for the directory transcripts are written to.
	EnvTranscriptDir = `TRANSCRIPT_DIR`

	// EnvAutoCloseInterval is how often inactive tickets are swept, as a duration such as "10m".
	EnvAutoCloseInterval = `AUTO_CLOSE_INTERVAL`

	// EnvEnvironment is "production" when cookies must be secure.
	EnvEnvironment = `ENVIRONMENT`
)

const (
	defaultMongoDatabase     = "rabbit"
	defaultMonitoringPort    = "8080"
	defaultDashboardPort     = "3000"
	defaultTranscriptDir     = "transcripts"
	defaultAutoCloseInterval = "10m"

	environmentProduction = "production"
)
