package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits a shell-like command string into argv, honoring single and
// double quotes plus backslash escapes. Comment lines yield a nil argv.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		argv    []string
		current strings.Builder
		quote   rune
		escape  bool
		started bool
	)

	flush := func() {
		if !started {
			return
		}
		argv = append(argv, current.String())
		current.Reset()
		started = false
	}

	for _, r := range input {
		switch {
		case escape:
			current.WriteRune(r)
			started = true
			escape = false
		case r == '\\':
			escape = true
			started = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			started = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if escape {
		return nil, fmt.Errorf("trailing backslash in command %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in command %q", input)
	}
	flush()

	return argv, nil
}
