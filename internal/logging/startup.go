package logging

import (
	"os"
	"runtime"

	"github.com/rs/zerolog"
)

// StartupLogger collects run identity, configuration and feature flags, then
// emits a single structured zerolog event describing how the run was
// configured. Only non-sensitive values belong here.
type StartupLogger struct {
	name     string
	version  string
	runID    string
	config   map[string]string
	features map[string]bool
}

// NewStartupLogger creates a StartupLogger for the named binary.
func NewStartupLogger(name string) *StartupLogger {
	return &StartupLogger{
		name:     name,
		config:   make(map[string]string),
		features: make(map[string]bool),
	}
}

// Version sets the build version.
func (s *StartupLogger) Version(v string) *StartupLogger {
	s.version = v
	return s
}

// RunID sets the identifier shared by every log line of this run.
func (s *StartupLogger) RunID(id string) *StartupLogger {
	s.runID = id
	return s
}

// Config registers a configuration key-value pair.
func (s *StartupLogger) Config(key, value string) *StartupLogger {
	s.config[key] = value
	return s
}

// Feature registers a boolean feature flag (e.g. "upload").
func (s *StartupLogger) Feature(name string, enabled bool) *StartupLogger {
	s.features[name] = enabled
	return s
}

// Log emits a single structured INFO event with all collected information.
func (s *StartupLogger) Log(logger zerolog.Logger) {
	host, _ := os.Hostname()

	runDict := zerolog.Dict().
		Str("name", s.name).
		Str("host", host).
		Str("goVersion", runtime.Version()).
		Str("arch", runtime.GOARCH)
	if s.version != "" {
		runDict = runDict.Str("version", s.version)
	}
	if s.runID != "" {
		runDict = runDict.Str("runId", s.runID)
	}

	evt := logger.Info().Dict("run", runDict)

	if len(s.config) > 0 {
		d := zerolog.Dict()
		for k, v := range s.config {
			d = d.Str(k, v)
		}
		evt = evt.Dict("config", d)
	}
	if len(s.features) > 0 {
		d := zerolog.Dict()
		for k, v := range s.features {
			d = d.Bool(k, v)
		}
		evt = evt.Dict("features", d)
	}

	evt.Msg("Run configuration")
}
