package tracker

import "github.com/rs/zerolog"

// Logger writes each tracked value as a structured log event
type Logger struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogger returns a Tracker logging to logger at level
func NewLogger(logger zerolog.Logger, level zerolog.Level) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "metrics").Logger(),
		level:  level,
	}
}

// Track logs the value of tag at step
func (l *Logger) Track(tag string, value float64, step int) {
	l.logger.WithLevel(l.level).
		Int("global_step", step).
		Str("tag", tag).
		Float64("value", value).
		Msg("metric")
}

// Save implements the Tracker interface. Logged values are not saved.
func (l *Logger) Save() error {
	return nil
}
