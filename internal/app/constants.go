// Package app - constants.go centralizes file locations and status values.
package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory and file names under the user config directory.
const (
	// GlobalConfigDir is the application subdirectory within the OS config directory.
	GlobalConfigDir = "flowlight"

	// ConfigFile is the default configuration file name.
	ConfigFile = "config.yaml"

	// ContextsDir is the subdirectory for named context files.
	ContextsDir = "contexts"

	// KeychainService is the keychain service holding context credentials.
	// Tokens read by keychain auth sources live under auth.KeychainService.
	KeychainService = "flowlight-context"

	// DefaultContextName is used when neither the config nor --context names one.
	DefaultContextName = "default"
)

// GlobalConfigPath returns the platform config directory for flowlight
// (e.g. ~/.config/flowlight on Linux).
func GlobalConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return filepath.Join(configDir, GlobalConfigDir), nil
}

// File permissions.
const (
	DirPerm  = 0o755
	FilePerm = 0o644

	// SecretFilePerm is used for files that may hold cookies.
	SecretFilePerm = 0o600
)

// Request status values shown in the palette.
const (
	StatusIdle    = "idle"
	StatusLoading = "loading"
	StatusOK      = "ok"
	StatusEmpty   = "empty"
	StatusError   = "error"
)
