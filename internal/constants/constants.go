// Package constants defines shared constants used across the plint codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
)

// Environment variables
const EnvConfigDir = "PLINT_CONFIG"

// Application paths
const (
	AppName         = "plint"
	XDGConfigSubdir = ".config"
	XDGDataSubdir   = ".local/share"
	ConfigFileName  = "config.toml"
	SlicesSubdir    = "rules/slices"
	ProfilesSubdir  = "rules/profiles"
	ActiveSubdir    = "rules/active"
	HookLogSubdir   = "logs"
)

// ExitDeny is the process exit code for a deny decision. Callers gate agent
// actions on it; 2 is the conventional blocking code for agent hook systems.
const ExitDeny = 2
