package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArgv(t *testing.T) {
	cases := []struct {
		input string
		want  []string
	}{
		{``, nil},
		{`# comment line`, nil},
		{`wl-copy`, []string{"wl-copy"}},
		{`wl-copy --trim-newline`, []string{"wl-copy", "--trim-newline"}},
		{`sh -c "echo hi"`, []string{"sh", "-c", "echo hi"}},
		{`notify 'two words'`, []string{"notify", "two words"}},
		{`echo a\ b`, []string{"echo", "a b"}},
		{`echo ""`, []string{"echo", ""}},
	}

	for _, tc := range cases {
		got, err := parseArgv(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		require.Equal(t, tc.want, got, "input %q", tc.input)
	}
}

func TestParseArgvErrors(t *testing.T) {
	_, err := parseArgv(`echo "unterminated`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated quote")

	_, err = parseArgv(`echo trailing\`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trailing backslash")
}

func TestLocaleToTag(t *testing.T) {
	cases := map[string]string{
		"en_US.UTF-8":    "en-US",
		"de_DE@euro":     "de-DE",
		"sv_SE":          "sv-SE",
		"fr":             "fr",
		"C":              "",
		"POSIX":          "",
		"":               "",
		"  nb_NO.UTF-8 ": "nb-NO",
	}
	for input, want := range cases {
		require.Equal(t, want, localeToTag(input), "input %q", input)
	}
}

func TestSystemLocalePrefersLCAll(t *testing.T) {
	t.Setenv("LC_ALL", "ja_JP.UTF-8")
	t.Setenv("LC_MESSAGES", "de_DE.UTF-8")
	t.Setenv("LANG", "en_US.UTF-8")
	require.Equal(t, "ja-JP", SystemLocale())
}

func TestSystemLocaleFallsBackToDefault(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "C")
	require.Equal(t, "en-US", SystemLocale())
}
