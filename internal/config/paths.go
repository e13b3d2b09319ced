package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

// userConfigFile returns tada/config.toml under the XDG config home if it
// exists.
func userConfigFile() string {
	// Pick up XDG_* changes made after start.
	xdg.Reload()
	return existing(filepath.Join(xdg.ConfigHome, "tada", "config.toml"))
}

// projectConfigFile returns .tada.toml in the working directory if it exists.
func projectConfigFile() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return existing(filepath.Join(wd, ProjectFileName))
}

func existing(path string) string {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return path
	}
	return ""
}

// expandPath expands ~ and environment variables.
func expandPath(p string) string {
	if p == "" {
		return p
	}
	p = os.ExpandEnv(p)
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	return p
}
