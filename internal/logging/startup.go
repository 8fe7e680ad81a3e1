package logging

import (
	"os"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StartupLogger collects process identity, resolved configuration, endpoints
// and feature flags, then emits a single structured zerolog event summarising
// how the binary was configured. Secrets are never registered.
type StartupLogger struct {
	name         string
	initDuration time.Duration

	endpoints   map[string]string
	directories map[string]string
	features    map[string]bool
	config      map[string]string
}

// NewStartupLogger creates a StartupLogger for the given binary name
// (e.g. "media-videos", "media-mcp").
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:        name,
		endpoints:   make(map[string]string),
		directories: make(map[string]string),
		features:    make(map[string]bool),
		config:      make(map[string]string),
	}
}

// Endpoint registers a remote endpoint (WordPress site, Vertex location, S3 bucket).
func (s *StartupLogger) Endpoint(label, value string) *StartupLogger {
	if value != "" {
		s.endpoints[label] = value
	}
	return s
}

// Directory registers a local directory used by this process.
func (s *StartupLogger) Directory(label, path string) *StartupLogger {
	s.directories[label] = path
	return s
}

// Feature registers a boolean feature flag (e.g. "s3Publish", "vertexAI").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Config registers a non-sensitive configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// InitDuration records how long startup took.
func (s *StartupLogger) InitDuration(d time.Duration) *StartupLogger {
	s.initDuration = d
	return s
}

// EnvOrDefault returns the value of the named environment variable, or
// defaultVal if the variable is empty or unset.
func EnvOrDefault(envVar, defaultVal string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return defaultVal
}

// Log emits a single structured INFO log event with all collected information.
func (s *StartupLogger) Log() {
	evt := log.Info().Dict("process", zerolog.Dict().
		Str("name", s.name).
		Int("pid", os.Getpid()).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH).
		Str("logLevel", os.Getenv("MEDIA_LOG_LEVEL")))

	if len(s.endpoints) > 0 {
		evt = evt.Dict("endpoints", dictFromMap(s.endpoints))
	}
	if len(s.directories) > 0 {
		evt = evt.Dict("directories", dictFromMap(s.directories))
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}
	if len(s.config) > 0 {
		evt = evt.Dict("config", dictFromMap(s.config))
	}
	if s.initDuration > 0 {
		evt = evt.Dur("initDuration", s.initDuration)
	}

	evt.Msg("Startup complete")
}

// dictFromMap converts a map[string]string into a zerolog.Event (Dict).
func dictFromMap(m map[string]string) *zerolog.Event {
	d := zerolog.Dict()
	for k, v := range m {
		d = d.Str(k, v)
	}
	return d
}
