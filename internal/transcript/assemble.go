// Package transcript assembles and normalizes recognized speech segments.
package transcript

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Options controls transcript assembly formatting behavior.
type Options struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// Assemble joins final recognition segments and applies configured normalization.
func Assemble(finalSegments []string, opts Options) string {
	if len(finalSegments) == 0 {
		return ""
	}

	joined := strings.Join(finalSegments, " ")
	normalized := strings.Join(strings.Fields(joined), " ")
	if normalized == "" {
		return ""
	}

	if opts.CapitalizeSentences {
		normalized = capitalizeSentences(normalized)
	}

	if opts.TrailingSpace {
		return normalized + " "
	}
	return normalized
}

// capitalizeSentences upcases the first letter after sentence-ending
// punctuation and the standalone pronoun "i".
func capitalizeSentences(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	atSentenceStart := true
	for _, word := range strings.Fields(text) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}

		if word == "i" || strings.HasPrefix(word, "i'") {
			word = "I" + word[1:]
		}
		if atSentenceStart {
			word = upperFirst(word)
		}

		b.WriteString(word)
		atSentenceStart = endsSentence(word)
	}

	return b.String()
}

func upperFirst(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

func endsSentence(word string) bool {
	switch {
	case strings.HasSuffix(word, "."), strings.HasSuffix(word, "!"), strings.HasSuffix(word, "?"):
		return true
	default:
		return false
	}
}
