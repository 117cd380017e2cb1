package data

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var snapshotPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}\.json$`)

// LatestSnapshots scans dir for YYYY-MM-DD.json files and returns the paths
// of the two most recent, previous first.
func LatestSnapshots(dir string) (previous, current string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", "", fmt.Errorf("reading snapshot directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !snapshotPattern.MatchString(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) < 2 {
		return "", "", fmt.Errorf("%w: need two dated snapshots in %s, found %d", ErrNotFound, dir, len(names))
	}

	// YYYY-MM-DD sorts lexicographically
	sort.Strings(names)
	n := len(names)
	return filepath.Join(dir, names[n-2]), filepath.Join(dir, names[n-1]), nil
}

// SnapshotDate extracts the date from a snapshot file name, or "".
func SnapshotDate(path string) string {
	base := filepath.Base(path)
	if !snapshotPattern.MatchString(base) {
		return ""
	}
	return strings.TrimSuffix(base, ".json")
}
