// Package config resolves, parses, validates, and defaults hark configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by hark.
type Config struct {
	Recognizer RecognizerConfig
	Audio      AudioConfig
	Session    SessionConfig
	Cues       CueConfig
	Transcript TranscriptConfig
	Notify     NotifyConfig
	Clipboard  CommandConfig
}

// RecognizerConfig controls the streaming recognition service connection.
type RecognizerConfig struct {
	Endpoint  string
	Model     string
	Language  string
	APIKeyEnv string
	Punctuate bool
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// SessionConfig controls session lifecycle timing.
type SessionConfig struct {
	IdleTimeoutMS int
}

// IdleTimeout returns the configured idle timeout as a duration.
func (s SessionConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutMS) * time.Millisecond
}

// CueConfig references the optional session cue sounds. An empty file path is
// a valid configuration: that cue is skipped silently.
type CueConfig struct {
	Enable     bool
	StartFile  string
	StopFile   string
	CancelFile string
}

// TranscriptConfig controls final transcript formatting.
type TranscriptConfig struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// NotifyConfig controls desktop notification surfacing.
type NotifyConfig struct {
	Enable         bool
	AppName        string
	ErrorTimeoutMS int
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
