package logging

// EnvLogLevel is the environment variable for the log level.
const EnvLogLevel = `LOG_LEVEL`

const (
	KeyApp       = "app"
	KeyError     = "err"
	KeyDal       = "dal"
	KeyGuild     = "guild_id"
	KeyChannel   = "channel_id"
	KeyUser      = "user_id"
	KeyCommand   = "command"
	KeyComponent = "component"
	KeyTicket    = "ticket_number"
)
