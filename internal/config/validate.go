package config

import (
	"fmt"
	"os"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	endpoint := strings.TrimSpace(cfg.Recognizer.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("recognizer.endpoint must not be empty")
	}
	if !strings.HasPrefix(endpoint, "ws://") && !strings.HasPrefix(endpoint, "wss://") {
		return nil, fmt.Errorf("recognizer.endpoint must be a ws:// or wss:// URL")
	}
	if strings.TrimSpace(cfg.Recognizer.Language) == "" {
		return nil, fmt.Errorf("recognizer.language must not be empty")
	}
	if strings.TrimSpace(cfg.Recognizer.APIKeyEnv) == "" {
		return nil, fmt.Errorf("recognizer.api_key_env must not be empty")
	}
	if cfg.Session.IdleTimeoutMS <= 0 {
		return nil, fmt.Errorf("session.idle_timeout_ms must be > 0")
	}
	if cfg.Notify.Enable && strings.TrimSpace(cfg.Notify.AppName) == "" {
		return nil, fmt.Errorf("notify.app_name must not be empty when notify.enable=true")
	}
	if cfg.Notify.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("notify.error_timeout_ms must be >= 0")
	}
	if len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd must not be empty")
	}

	if cfg.Cues.Enable {
		warnings = append(warnings, cueFileWarnings(cfg.Cues)...)
	}

	return warnings, nil
}

// cueFileWarnings reports configured cue files that do not exist. A missing
// cue is not fatal: playback falls back to the synthesized tone.
func cueFileWarnings(cues CueConfig) []Warning {
	warnings := make([]Warning, 0)
	for _, cue := range []struct {
		name string
		path string
	}{
		{"cues.start_file", cues.StartFile},
		{"cues.stop_file", cues.StopFile},
		{"cues.cancel_file", cues.CancelFile},
	} {
		if strings.TrimSpace(cue.path) == "" {
			continue
		}
		if _, err := os.Stat(ExpandUserPath(cue.path)); err != nil {
			warnings = append(warnings, Warning{
				Message: fmt.Sprintf("%s %q is not readable; synthesized cue will be used", cue.name, cue.path),
			})
		}
	}
	return warnings
}
