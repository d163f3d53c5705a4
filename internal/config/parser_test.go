package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, _, err := Parse("   \n\t\n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParseFlatOverrides(t *testing.T) {
	content := `
# hark config
recognizer.language = de-DE
recognizer.model = nova-2
session.idle_timeout_ms = 2500
cues.enable = false
clipboard_cmd = xclip -selection clipboard
`
	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "de-DE", cfg.Recognizer.Language)
	require.Equal(t, "nova-2", cfg.Recognizer.Model)
	require.Equal(t, 2500, cfg.Session.IdleTimeoutMS)
	require.False(t, cfg.Cues.Enable)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Clipboard.Argv)
}

func TestParseFlatUnknownKeyWarns(t *testing.T) {
	cfg, warnings, err := Parse("nonsense.key = 1\n", Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Equal(t, 1, warnings[0].Line)
	require.Contains(t, warnings[0].Message, "unknown config key")
	require.Equal(t, Default(), cfg)
}

func TestParseFlatBadValueFails(t *testing.T) {
	_, _, err := Parse("session.idle_timeout_ms = soon\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "expects an integer")

	_, _, err = Parse("cues.enable = maybe\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "expects a boolean")

	_, _, err = Parse("just a line without assignment\n", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "expected key = value")
}

func TestParseJSONCOverrides(t *testing.T) {
	content := `{
	// streaming recognizer
	"recognizer": {
		"language": "fr-FR",
		"punctuate": false,
	},
	/* timing */
	"session": { "idle_timeout_ms": 900 },
	"cues": { "stop_file": "/tmp/stop.wav" },
	"notify": { "enable": false },
}`
	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, "fr-FR", cfg.Recognizer.Language)
	require.False(t, cfg.Recognizer.Punctuate)
	require.Equal(t, 900, cfg.Session.IdleTimeoutMS)
	require.Equal(t, "/tmp/stop.wav", cfg.Cues.StopFile)
	require.False(t, cfg.Notify.Enable)
	// untouched sections keep defaults
	require.Equal(t, Default().Audio, cfg.Audio)
}

func TestParseJSONCUnknownFieldFails(t *testing.T) {
	_, _, err := Parse(`{"recogniser": {}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseJSONCSyntaxErrorReportsLine(t *testing.T) {
	_, _, err := Parse("{\n\t\"session\": {\n\t\t\"idle_timeout_ms\": }\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseJSONCUnterminatedBlockComment(t *testing.T) {
	_, _, err := Parse(`{"session": {} /* dangling`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestParseJSONCCommentDelimitersInsideStrings(t *testing.T) {
	cfg, _, err := Parse(`{"cues": {"start_file": "/media//start.wav"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "/media//start.wav", cfg.Cues.StartFile)
}

func TestParseJSONCTrailingCommaBeforeLineComment(t *testing.T) {
	cfg, _, err := Parse("{\n\"session\": {\"idle_timeout_ms\": 800, // short\n}\n}", Default())
	require.NoError(t, err)
	require.Equal(t, 800, cfg.Session.IdleTimeoutMS)
}

func TestParseJSONCValidationStillApplies(t *testing.T) {
	_, _, err := Parse(`{"session": {"idle_timeout_ms": 0}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "idle_timeout_ms must be > 0")
}
