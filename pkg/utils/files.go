package utils

import "path/filepath"

// AbsPath resolves relPath against the working directory and cleans it.
func AbsPath(relPath string) (string, error) {
	return filepath.Abs(relPath)
}
