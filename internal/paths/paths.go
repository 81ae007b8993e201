// Package paths resolves promoter's on-disk state locations.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-project state directory.
const StateDirName = ".promoter"

// ResolveStateDir resolves the state directory from user input.
//
// Input normalization:
//   - "/path/to/project" -> "/path/to/project/.promoter"
//   - "/path/to/project/.promoter" -> "/path/to/project/.promoter"
//   - "" -> "./.promoter"
//
// If the state directory contains a "redirect" file, its trimmed content is
// followed (relative targets resolve against the state directory). CI
// workspaces use this to share one history database across checkouts.
func ResolveStateDir(path string) string {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)

	if filepath.Base(path) != StateDirName {
		path = filepath.Join(path, StateDirName)
	}
	return followRedirect(path)
}

func followRedirect(stateDir string) string {
	content, err := os.ReadFile(filepath.Join(stateDir, "redirect")) //nolint:gosec // redirect path is within the state dir
	if err != nil {
		return stateDir
	}

	target := strings.TrimSpace(string(content))
	if target == "" {
		return stateDir
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target)
	}
	return filepath.Clean(filepath.Join(stateDir, target))
}

// HistoryDB is the run history database inside stateDir.
func HistoryDB(stateDir string) string {
	return filepath.Join(stateDir, "history.db")
}

// LogsDir is the per-run log root inside stateDir.
func LogsDir(stateDir string) string {
	return filepath.Join(stateDir, "logs")
}

// ApprovalsDir is where the file approval channel exchanges requests.
func ApprovalsDir(stateDir string) string {
	return filepath.Join(stateDir, "approvals")
}

// UserConfigDir is ~/.config/promoter, or "" when the home directory is
// unknown.
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "promoter")
}
