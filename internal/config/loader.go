package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultProfileFile is the default portal profile file name.
const DefaultProfileFile = ".blotterscan"

// ErrProfileNotFound is returned when the profile file does not exist.
// Callers should handle this error based on whether the profile path was
// explicitly specified by the user.
var ErrProfileNotFound = errors.New("portal profile file not found")

// LoadProfile loads a portal profile from a YAML file. Fields omitted from
// the file keep their built-in defaults, so a profile file only needs to
// list what differs from the Palm Beach County portal.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided profile path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, err
	}

	return profile, nil
}

// FindProfileFile searches for the profile file in the following order:
// 1. If profilePath is specified, use it directly
// 2. Look for .blotterscan in the current directory
// 3. Look for .blotterscan in the user's home directory
//
// Returns the path to the profile file if found, or empty string if not found.
func FindProfileFile(profilePath string) string {
	if profilePath != "" {
		if _, err := os.Stat(profilePath); err == nil {
			return profilePath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdProfile := filepath.Join(cwd, DefaultProfileFile)
		if _, err := os.Stat(cwdProfile); err == nil {
			return cwdProfile
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeProfile := filepath.Join(home, DefaultProfileFile)
		if _, err := os.Stat(homeProfile); err == nil {
			return homeProfile
		}
	}

	return ""
}
