package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

// Migration files are numbered with a fixed-width sequence so that
// golang-migrate and a plain directory listing agree on order.
const sequenceWidth = 6

var migrationTemplates = map[string]*template.Template{
	".up.sql": template.Must(template.New("up").Parse(`-- {{.Name}}
-- Created: {{.Timestamp}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`)),
	".down.sql": template.Must(template.New("down").Parse(`-- {{.Name}} (rollback)
-- Created: {{.Timestamp}}

`)),
}

// MigrationFile describes an up/down pair on disk
type MigrationFile struct {
	Version     uint
	Name        string
	Description string
	Timestamp   string
	UpPath      string
	DownPath    string
}

// CreateMigration writes an empty up/down pair numbered after the highest
// existing migration in dir.
func CreateMigration(dir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(dir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if n := len(existing); n > 0 {
		next = existing[n-1].Version + 1
	}

	base := fmt.Sprintf("%0*d_%s", sequenceWidth, next, slug)
	mf := &MigrationFile{
		Version:     next,
		Name:        slug,
		Description: description,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		UpPath:      filepath.Join(dir, base+".up.sql"),
		DownPath:    filepath.Join(dir, base+".down.sql"),
	}

	if err := writeFromTemplate(mf.UpPath, migrationTemplates[".up.sql"], mf); err != nil {
		return nil, err
	}
	if err := writeFromTemplate(mf.DownPath, migrationTemplates[".down.sql"], mf); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeFromTemplate(path string, tmpl *template.Template, data *MigrationFile) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

// sanitizeName lowercases a name and collapses separators to single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// ListMigrations returns the numbered migrations in dir ordered by version.
// Files that do not start with a sequence number are ignored.
func ListMigrations(dir string) ([]MigrationFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	byVersion := make(map[uint]*MigrationFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		var base, suffix string
		switch {
		case strings.HasSuffix(fileName, ".up.sql"):
			base, suffix = strings.TrimSuffix(fileName, ".up.sql"), ".up.sql"
		case strings.HasSuffix(fileName, ".down.sql"):
			base, suffix = strings.TrimSuffix(fileName, ".down.sql"), ".down.sql"
		default:
			continue
		}
		seq, slug, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(seq, 10, 64)
		if err != nil {
			continue
		}

		mf, ok := byVersion[uint(version)]
		if !ok {
			mf = &MigrationFile{Version: uint(version), Name: slug}
			byVersion[uint(version)] = mf
		}
		if suffix == ".up.sql" {
			mf.UpPath = filepath.Join(dir, fileName)
		} else {
			mf.DownPath = filepath.Join(dir, fileName)
		}
	}

	out := make([]MigrationFile, 0, len(byVersion))
	for _, mf := range byVersion {
		out = append(out, *mf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
