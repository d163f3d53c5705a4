package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUserPath resolves a leading ~ or ~/ against the user home directory.
// Unexpandable input is returned unchanged.
func ExpandUserPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return raw
		}
		return home
	}
	if !strings.HasPrefix(raw, "~/") {
		return raw
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return raw
	}
	return filepath.Join(home, strings.TrimPrefix(raw, "~/"))
}
