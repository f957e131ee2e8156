package migrate

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
)

var migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

// ValidateDir checks that every SQL file in dir follows the goose naming
// convention and that no version number is duplicated.
func ValidateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	seen := map[string]string{}
	var bad []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		m := migrationFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			bad = append(bad, entry.Name())
			continue
		}
		if prev, dup := seen[m[1]]; dup {
			return fmt.Errorf("duplicate migration version %s: %s and %s", m[1], prev, entry.Name())
		}
		seen[m[1]] = entry.Name()
	}

	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("malformed migration filenames: %s", strings.Join(bad, ", "))
	}
	return nil
}
