package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands the path using the user's home directory.
// If the path starts with "~", it is replaced with the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}

		path = filepath.Join(homeDir, path[1:])
	}

	return path, nil
}

// Resolve joins rel onto root unless rel is already absolute.
func Resolve(root, rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}

	return filepath.Join(root, filepath.FromSlash(rel))
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
