// Package util provides small host helpers used by the fireteam CLI.
package util

import (
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// TrimQuotes removes surrounding whitespace and double quotes from a config value.
func TrimQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// FolderCommand returns the command that opens dir in the file browser of goos.
func FolderCommand(goos, dir string) (name string, args []string) {
	switch goos {
	case "windows":
		return "explorer", []string{dir}
	case "darwin":
		return "open", []string{dir}
	default:
		return "xdg-open", []string{dir}
	}
}

// Swapped by tests.
var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenFolder opens the directory containing path in the host file browser.
// It does not wait for the browser to exit.
func OpenFolder(path string) error {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return err
	}
	name, args := FolderCommand(runtime.GOOS, dir)
	return startCommand(name, args...)
}
