// Package sqlwalk discovers `.sql` query files under a set of root
// directories, using github.com/bmatcuk/doublestar for `**`-aware glob
// patterns so a single root can recurse arbitrarily deep without the
// caller having to enumerate subdirectories by hand.
package sqlwalk

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar"
)

// DefaultPattern matches every .sql file at any depth under a root.
const DefaultPattern = "**/*.sql"

// Find returns every file under root matching pattern (relative to root),
// sorted for deterministic output. An empty pattern defaults to
// DefaultPattern.
func Find(root, pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	full := filepath.Join(root, pattern)
	matches, err := doublestar.Glob(full)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", full, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// FindAll runs Find over every root and concatenates the results in root
// order, each root's matches sorted individually.
func FindAll(roots []string, pattern string) ([]string, error) {
	var all []string
	for _, root := range roots {
		matches, err := Find(root, pattern)
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return all, nil
}
