package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	// AxeDirName is the per-project dot directory holding config and cache
	AxeDirName = ".axe"
	// IgnoreFileName is the glob-pattern ignore file discovered by upward walk
	IgnoreFileName = ".axignore"
	// DatabaseFileName is the extraction cache database inside AxeDirName
	DatabaseFileName = "axe.db"
	// ConfigFileName is the JSON configuration inside AxeDirName
	ConfigFileName = "config.json"
)

// AxeDir returns the .axe directory for a project root
func AxeDir(projectRoot string) string {
	return filepath.Join(projectRoot, AxeDirName)
}

// DatabasePath returns the cache database path for a project root
func DatabasePath(projectRoot string) string {
	return filepath.Join(projectRoot, AxeDirName, DatabaseFileName)
}

// ConfigPath returns the config file path for a project root
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, AxeDirName, ConfigFileName)
}

// CanonicalizePath converts an absolute path to a project-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to the project root
// - Converts backslashes to forward slashes
// - Returns project-relative path with forward slashes
func CanonicalizePath(absolutePath string, projectRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(projectRoot)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = projectRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	// Convert to forward slashes (platform independent)
	return filepath.ToSlash(relativePath), nil
}

// IsWithinProject checks if a path is within the project root
func IsWithinProject(path string, projectRoot string) bool {
	canonical, err := CanonicalizePath(path, projectRoot)
	if err != nil {
		return false
	}

	// Path is outside the project if it starts with ..
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
// This is useful for paths that are already relative but need normalization
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinProjectPath joins a project root with a canonical path
func JoinProjectPath(projectRoot string, canonicalPath string) string {
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{projectRoot}, parts...)...)
}
