package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Audio      *jsoncAudio      `json:"audio"`
	Session    *jsoncSession    `json:"session"`
	Cues       *jsoncCues       `json:"cues"`
	Transcript *jsoncTranscript `json:"transcript"`
	Notify     *jsoncNotify     `json:"notify"`

	ClipboardCmd *string `json:"clipboard_cmd"`
}

type jsoncRecognizer struct {
	Endpoint  *string `json:"endpoint"`
	Model     *string `json:"model"`
	Language  *string `json:"language"`
	APIKeyEnv *string `json:"api_key_env"`
	Punctuate *bool   `json:"punctuate"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncSession struct {
	IdleTimeoutMS *int `json:"idle_timeout_ms"`
}

type jsoncCues struct {
	Enable     *bool   `json:"enable"`
	StartFile  *string `json:"start_file"`
	StopFile   *string `json:"stop_file"`
	CancelFile *string `json:"cancel_file"`
}

type jsoncTranscript struct {
	TrailingSpace       *bool `json:"trailing_space"`
	CapitalizeSentences *bool `json:"capitalize_sentences"`
}

type jsoncNotify struct {
	Enable         *bool   `json:"enable"`
	AppName        *string `json:"app_name"`
	ErrorTimeoutMS *int    `json:"error_timeout_ms"`
}

func parseJSONC(content string, base Config) (Config, []Warning, error) {
	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return Config{}, nil, errors.New("multiple JSON values are not allowed")
		}
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if r := payload.Recognizer; r != nil {
		if r.Endpoint != nil {
			cfg.Recognizer.Endpoint = strings.TrimSpace(*r.Endpoint)
		}
		if r.Model != nil {
			cfg.Recognizer.Model = strings.TrimSpace(*r.Model)
		}
		if r.Language != nil {
			cfg.Recognizer.Language = strings.TrimSpace(*r.Language)
		}
		if r.APIKeyEnv != nil {
			cfg.Recognizer.APIKeyEnv = strings.TrimSpace(*r.APIKeyEnv)
		}
		if r.Punctuate != nil {
			cfg.Recognizer.Punctuate = *r.Punctuate
		}
	}

	if a := payload.Audio; a != nil {
		if a.Input != nil {
			cfg.Audio.Input = *a.Input
		}
		if a.Fallback != nil {
			cfg.Audio.Fallback = *a.Fallback
		}
	}

	if s := payload.Session; s != nil && s.IdleTimeoutMS != nil {
		cfg.Session.IdleTimeoutMS = *s.IdleTimeoutMS
	}

	if c := payload.Cues; c != nil {
		if c.Enable != nil {
			cfg.Cues.Enable = *c.Enable
		}
		if c.StartFile != nil {
			cfg.Cues.StartFile = strings.TrimSpace(*c.StartFile)
		}
		if c.StopFile != nil {
			cfg.Cues.StopFile = strings.TrimSpace(*c.StopFile)
		}
		if c.CancelFile != nil {
			cfg.Cues.CancelFile = strings.TrimSpace(*c.CancelFile)
		}
	}

	if tr := payload.Transcript; tr != nil {
		if tr.TrailingSpace != nil {
			cfg.Transcript.TrailingSpace = *tr.TrailingSpace
		}
		if tr.CapitalizeSentences != nil {
			cfg.Transcript.CapitalizeSentences = *tr.CapitalizeSentences
		}
	}

	if n := payload.Notify; n != nil {
		if n.Enable != nil {
			cfg.Notify.Enable = *n.Enable
		}
		if n.AppName != nil {
			cfg.Notify.AppName = strings.TrimSpace(*n.AppName)
		}
		if n.ErrorTimeoutMS != nil {
			cfg.Notify.ErrorTimeoutMS = *n.ErrorTimeoutMS
		}
	}

	if payload.ClipboardCmd != nil {
		raw := *payload.ClipboardCmd
		argv, err := parseArgv(raw)
		if err != nil {
			return fmt.Errorf("invalid clipboard_cmd: %w", err)
		}
		cfg.Clipboard = CommandConfig{Raw: raw, Argv: argv}
	}

	return nil
}

// normalizeJSONC rewrites JSONC into strict JSON: comments are blanked out
// (preserving newlines so error offsets keep their line numbers), then trailing
// commas before `}`/`]` are blanked in a second string-aware pass.
func normalizeJSONC(content string) (string, error) {
	out := []byte(content)

	const (
		scanJSON = iota
		scanString
		scanLineComment
		scanBlockComment
	)

	mode := scanJSON
	escaped := false
	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch mode {
		case scanString:
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				mode = scanJSON
			}
		case scanLineComment:
			if ch == '\n' || ch == '\r' {
				mode = scanJSON
			} else {
				out[i] = ' '
			}
		case scanBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				mode = scanJSON
			} else if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		default:
			switch {
			case ch == '"':
				mode = scanString
			case ch == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i], out[i+1] = ' ', ' '
				i++
				mode = scanLineComment
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i], out[i+1] = ' ', ' '
				i++
				mode = scanBlockComment
			}
		}
	}

	if mode == scanBlockComment {
		return "", errors.New("unterminated block comment in JSONC")
	}

	inString := false
	escaped = false
	for i := 0; i < len(out); i++ {
		ch := out[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		if ch == '"' {
			inString = true
			continue
		}
		if ch == ',' {
			if j := nextNonSpace(out, i+1); j < len(out) && (out[j] == '}' || out[j] == ']') {
				out[i] = ' '
			}
		}
	}

	return string(out), nil
}

func nextNonSpace(content []byte, from int) int {
	for i := from; i < len(content); i++ {
		switch content[i] {
		case ' ', '\n', '\r', '\t':
		default:
			return i
		}
	}
	return len(content)
}

func wrapJSONDecodeError(content string, err error) error {
	var offset int64 = -1

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}

	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (int, int) {
	if offset <= 0 {
		return 1, 1
	}

	limit := int(offset)
	if limit > len(content) {
		limit = len(content)
	}

	line, col := 1, 1
	for i := 0; i < limit-1; i++ {
		if content[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}
