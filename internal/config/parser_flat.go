package config

import (
	"fmt"
	"strconv"
	"strings"
)

// parseFlat reads the flat `key = value` format, one assignment per line.
// Blank lines and `#` comments are skipped; unknown keys produce warnings
// rather than errors so older configs keep loading.
func parseFlat(content string, base Config) (Config, []Warning, error) {
	cfg := base
	warnings := make([]Warning, 0)

	for lineNo, rawLine := range strings.Split(content, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return Config{}, nil, fmt.Errorf("line %d: expected key = value, got %q", lineNo+1, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if err := applyFlatKey(&cfg, key, value); err != nil {
			if isUnknownKey(err) {
				warnings = append(warnings, Warning{Line: lineNo + 1, Message: err.Error()})
				continue
			}
			return Config{}, nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
	}

	validatedWarnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	warnings = append(warnings, validatedWarnings...)
	return cfg, warnings, nil
}

type unknownKeyError struct{ key string }

func (e unknownKeyError) Error() string { return fmt.Sprintf("unknown config key %q", e.key) }

func isUnknownKey(err error) bool {
	_, ok := err.(unknownKeyError)
	return ok
}

func applyFlatKey(cfg *Config, key string, value string) error {
	switch key {
	case "recognizer.endpoint":
		cfg.Recognizer.Endpoint = value
	case "recognizer.model":
		cfg.Recognizer.Model = value
	case "recognizer.language":
		cfg.Recognizer.Language = value
	case "recognizer.api_key_env":
		cfg.Recognizer.APIKeyEnv = value
	case "recognizer.punctuate":
		return setBool(&cfg.Recognizer.Punctuate, key, value)
	case "audio.input":
		cfg.Audio.Input = value
	case "audio.fallback":
		cfg.Audio.Fallback = value
	case "session.idle_timeout_ms":
		return setInt(&cfg.Session.IdleTimeoutMS, key, value)
	case "cues.enable":
		return setBool(&cfg.Cues.Enable, key, value)
	case "cues.start_file":
		cfg.Cues.StartFile = value
	case "cues.stop_file":
		cfg.Cues.StopFile = value
	case "cues.cancel_file":
		cfg.Cues.CancelFile = value
	case "transcript.trailing_space":
		return setBool(&cfg.Transcript.TrailingSpace, key, value)
	case "transcript.capitalize_sentences":
		return setBool(&cfg.Transcript.CapitalizeSentences, key, value)
	case "notify.enable":
		return setBool(&cfg.Notify.Enable, key, value)
	case "notify.app_name":
		cfg.Notify.AppName = value
	case "notify.error_timeout_ms":
		return setInt(&cfg.Notify.ErrorTimeoutMS, key, value)
	case "clipboard_cmd":
		argv, err := parseArgv(value)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: value, Argv: argv}
	default:
		return unknownKeyError{key: key}
	}
	return nil
}

func setBool(target *bool, key string, value string) error {
	parsed, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return fmt.Errorf("%s expects a boolean, got %q", key, value)
	}
	*target = parsed
	return nil
}

func setInt(target *int, key string, value string) error {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s expects an integer, got %q", key, value)
	}
	*target = parsed
	return nil
}
