package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const (
	upMarker   = "-- +goose Up"
	downMarker = "-- +goose Down"
)

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// File is one goose SQL migration on disk.
type File struct {
	Version int64
	Name    string
	Path    string
}

// ListFiles returns the .sql migrations in dir ordered by version.
// Misnamed files and duplicate versions are errors.
func ListFiles(dir string) ([]File, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	byVersion := map[int64]string{}
	var files []File
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		match := fileNameRe.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", entry.Name())
		}
		version, err := ParseVersion(match[1])
		if err != nil {
			return nil, err
		}
		if prev, dup := byVersion[version]; dup {
			return nil, fmt.Errorf("duplicate migration version %d in %q and %q", version, prev, entry.Name())
		}
		byVersion[version] = entry.Name()
		files = append(files, File{Version: version, Name: match[2], Path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Version < files[j].Version })
	return files, nil
}

// ValidateDir checks names and goose annotations of every migration in dir.
func ValidateDir(dir string) error {
	files, err := ListFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations found in %q", dir)
	}
	for _, file := range files {
		body, err := os.ReadFile(file.Path)
		if err != nil {
			return fmt.Errorf("read file %q: %w", file.Path, err)
		}
		if err := checkAnnotations(string(body)); err != nil {
			return fmt.Errorf("migration %q: %w", filepath.Base(file.Path), err)
		}
	}
	return nil
}

func checkAnnotations(body string) error {
	up := strings.Index(body, upMarker)
	down := strings.Index(body, downMarker)
	switch {
	case up < 0:
		return fmt.Errorf("missing %q", upMarker)
	case down < 0:
		return fmt.Errorf("missing %q", downMarker)
	case down < up:
		return fmt.Errorf("%q must precede %q", upMarker, downMarker)
	}
	return nil
}

// CreateSQLMigration writes an empty goose migration named
// <dir>/<YYYYMMDDHHMMSS>_<slug>.sql and returns its path.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", time.Now().UTC().Format("20060102150405"), slug))
	body := fmt.Sprintf("%s\n-- +goose StatementBegin\n-- %s\n-- +goose StatementEnd\n\n%s\n-- +goose StatementBegin\n-- revert %s\n-- +goose StatementEnd\n",
		upMarker, slug, downMarker, slug)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	if _, err := f.WriteString(body); err != nil {
		f.Close()
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, f.Close()
}
