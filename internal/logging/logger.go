package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init initializes the global logger with configuration from environment variables.
// MEDIA_LOG_LEVEL controls the log level: debug, info, warn, error (default: info)
// MEDIA_LOG_FORMAT=json switches from the console writer to raw JSON on stderr.
func Init() {
	InitWithWriter(os.Stderr)
}

// InitWithWriter is Init with an explicit destination. The MCP server and the
// Lambda use it so that stdout stays reserved for protocol traffic.
func InitWithWriter(w io.Writer) {
	zerolog.SetGlobalLevel(parseLevel(os.Getenv("MEDIA_LOG_LEVEL")))

	if os.Getenv("MEDIA_LOG_FORMAT") == "json" {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
