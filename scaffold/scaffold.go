// Package scaffold writes the starter files of a new golpo site: config,
// robots.txt, ads.txt and a sample story table.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/natefinch/atomic"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// ErrExists is returned when a file the scaffold would write already exists.
var ErrExists = errors.New("scaffold: file exists")

// Data holds the template variables passed to every scaffold template.
type Data struct {
	SiteName string
	SiteURL  string
	Today    string // YYYY-MM-DD
}

// Write renders every template into dir and returns the created paths.
// Existing files are never overwritten unless force is set.
func Write(dir string, data Data, force bool) ([]string, error) {
	data.SiteURL = strings.TrimRight(data.SiteURL, "/")
	root := "templates"
	var created []string
	err := fs.WalkDir(Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if _, err := os.Stat(outPath); err == nil && !force {
			return fmt.Errorf("%w: %s", ErrExists, outPath)
		}

		content, err := Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
			return err
		}
		if err := atomic.WriteFile(outPath, &buf); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		if err := os.Chmod(outPath, 0o644); err != nil {
			return err
		}
		created = append(created, outPath)
		return nil
	})
	if err != nil {
		return created, err
	}
	return created, nil
}
