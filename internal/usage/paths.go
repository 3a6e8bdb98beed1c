package usage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Sources locates the log directories a Service reads.
type Sources struct {
	// ProjectsDir holds one sub-directory of session logs per project.
	ProjectsDir string
	// HooksDir holds the daily files written by the hook recorder.
	HooksDir string
}

// DefaultSources returns the standard locations under the user's home.
func DefaultSources() (Sources, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Sources{}, fmt.Errorf("resolve home directory: %w", err)
	}
	return Sources{
		ProjectsDir: DefaultProjectsDir(home),
		HooksDir:    DefaultHooksDir(home),
	}, nil
}

// DefaultProjectsDir returns home/.claude/projects.
func DefaultProjectsDir(home string) string {
	return filepath.Join(home, ".claude", "projects")
}

// DefaultHooksDir returns home/.claude/hooks.
func DefaultHooksDir(home string) string {
	return filepath.Join(home, ".claude", "hooks")
}

// LogsPattern is the recursive glob matching every session log under dir.
func LogsPattern(dir string) string {
	return filepath.ToSlash(filepath.Join(dir, "**", "*.jsonl"))
}

// HooksPattern is the glob matching the hook recorder's daily files.
func HooksPattern(dir string) string {
	return filepath.ToSlash(filepath.Join(dir, "*.jsonl"))
}

// dirExists reports whether path is an existing directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// hasHookFiles reports whether dir contains at least one hooks file.
// read_json fails on a glob that matches nothing, so callers check first.
func hasHookFiles(dir string) bool {
	if !dirExists(dir) {
		return false
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	return err == nil && len(matches) > 0
}
