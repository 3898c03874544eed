package migrate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

var (
	// migrationFile matches migration filenames: a two-part numeric timestamp
	// version, followed by a name, e.g. "20231207_120000_create_users.sql".
	migrationFile = regexp.MustCompile(`^(\d+_\d+)_(.+)\.sql$`)
	// downMarker matches the delimiter line separating up SQL from down SQL.
	downMarker = regexp.MustCompile(`(?i)^\s*--\s*migration:\s*down\s*$`)
)

// Load reads all migration files from dir on fsys and returns them in
// ascending version order. The lexicographic filename sort establishes that
// order, since versions are timestamp-prefixed.
//
// Filenames that don't match the migration pattern are skipped; they are
// treated as unrelated files in the directory, not as an error. A missing
// directory yields an empty result. An unreadable file, a duplicate version,
// or a migration with no up SQL is an error.
func Load(fsys vfs.FileSystem, dir string) ([]*Migration, error) {
	entries, err := vfs.ReadDir(fsys, dir)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed reading migrations directory '%s': %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !migrationFile.MatchString(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	migrations := make([]*Migration, 0, len(names))
	files := map[string]string{} // version -> filename
	for _, name := range names {
		match := migrationFile.FindStringSubmatch(name)
		version := match[1]
		if prev, ok := files[version]; ok {
			return nil, DuplicateVersionError{Version: version, Files: []string{prev, name}}
		}
		files[version] = name

		contents, err := vfs.ReadFile(fsys, filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed reading migration file '%s': %w", name, err)
		}

		m, err := parseMigration(version, match[2], string(contents), name)
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, m)
	}

	return migrations, nil
}

// parseMigration splits a migration file's contents on the down-marker line
// and filters comments from both portions. The portion before the marker is
// the up SQL, the portion after it (if any) is the down SQL.
func parseMigration(version, name, contents, file string) (*Migration, error) {
	up, down := splitDown(contents)
	up = strings.TrimSpace(stripComments(up))
	down = strings.TrimSpace(stripComments(down))
	if up == "" {
		return nil, EmptyMigrationError{File: file}
	}

	return &Migration{Version: version, Name: name, Up: up, Down: down}, nil
}

func splitDown(contents string) (up, down string) {
	lines := strings.Split(contents, "\n")
	for i, line := range lines {
		if downMarker.MatchString(line) {
			return strings.Join(lines[:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}

	return contents, ""
}
