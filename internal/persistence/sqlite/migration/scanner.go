package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scan reads every *.sql file of dir in fsys and returns the migrations
// ordered by numeric version.
func Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, &MigrationError{Path: dir, Operation: "read directory", Err: err}
	}

	migrations := make([]Migration, 0, len(entries))
	byVersion := make(map[string]string, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		m, err := parseFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if other, dup := byVersion[m.Version]; dup {
			return nil, newMigrationError(m, "check duplicates",
				fmt.Errorf("%w: %s and %s", ErrDuplicateVersion, other, entry.Name()))
		}
		byVersion[m.Version] = entry.Name()
		migrations = append(migrations, m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return versionNumber(migrations[i].Version) < versionNumber(migrations[j].Version)
	})
	return migrations, nil
}

func parseFile(fsys fs.FS, filePath string) (Migration, error) {
	name := path.Base(filePath)
	match := fileNamePattern.FindStringSubmatch(name)
	if match == nil {
		return Migration{}, &MigrationError{Path: filePath, Operation: "validate filename",
			Err: fmt.Errorf("%w: %s does not match {version}_{description}.sql", ErrInvalidMigrationFile, name)}
	}

	body, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return Migration{}, &MigrationError{Version: match[1], Path: filePath, Operation: "read file", Err: err}
	}
	if strings.TrimSpace(string(body)) == "" {
		return Migration{}, &MigrationError{Version: match[1], Path: filePath, Operation: "read file",
			Err: fmt.Errorf("%w: empty file", ErrInvalidMigrationFile)}
	}

	sum := sha256.Sum256(body)
	return Migration{
		Version:     match[1],
		Description: match[2],
		SQL:         string(body),
		Path:        filePath,
		Checksum:    hex.EncodeToString(sum[:]),
	}, nil
}

func versionNumber(version string) int {
	n, err := strconv.Atoi(version)
	if err != nil {
		return 0
	}
	return n
}

// splitStatements splits a script on semicolons, dropping comment-only and
// blank statements. Statements must not contain literal semicolons.
func splitStatements(script string) []string {
	parts := strings.Split(script, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		if stmt := strings.TrimSpace(stripComments(part)); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}

func stripComments(sql string) string {
	lines := strings.Split(sql, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
