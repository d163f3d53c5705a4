package config

import (
	"os"
	"strings"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Recognizer: RecognizerConfig{
			Endpoint:  "wss://api.deepgram.com/v1/listen",
			Model:     "nova-3",
			Language:  SystemLocale(),
			APIKeyEnv: "DEEPGRAM_API_KEY",
			Punctuate: true,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Session: SessionConfig{IdleTimeoutMS: 1500},
		Cues:    CueConfig{Enable: true},
		Transcript: TranscriptConfig{
			TrailingSpace:       true,
			CapitalizeSentences: true,
		},
		Notify: NotifyConfig{
			Enable:         true,
			AppName:        "hark",
			ErrorTimeoutMS: 1600,
		},
		Clipboard: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
	}
}

// SystemLocale derives a BCP 47 language tag from the process locale
// environment, falling back to en-US when nothing usable is set.
func SystemLocale() string {
	for _, name := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if tag := localeToTag(os.Getenv(name)); tag != "" {
			return tag
		}
	}
	return "en-US"
}

// localeToTag converts POSIX locale values like "en_US.UTF-8" into "en-US".
func localeToTag(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "C") || strings.EqualFold(raw, "POSIX") {
		return ""
	}
	if i := strings.IndexAny(raw, ".@"); i >= 0 {
		raw = raw[:i]
	}
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, "_", 2)
	lang := strings.ToLower(parts[0])
	if lang == "" {
		return ""
	}
	if len(parts) == 1 || parts[1] == "" {
		return lang
	}
	return lang + "-" + strings.ToUpper(parts[1])
}

// mustParseArgv parses a known-good built-in command string.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic("invalid built-in command: " + input)
	}
	return argv
}
