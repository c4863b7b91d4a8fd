package pipeline

import (
	"fmt"
	"path/filepath"
)

// Discover expands pattern with shell glob rules. Matches come back in the
// order filepath.Glob produces them; no filtering is applied, so a matched
// directory fails at open time like any other unreadable input.
func Discover(pattern string) ([]string, error) {
	if pattern == "" {
		return nil, fmt.Errorf("no input pattern given")
	}
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return files, nil
}
