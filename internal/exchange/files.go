package exchange

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bijoor/site-tour-tools/internal/tour"
)

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// WriteFile exports a tour to path, choosing the format from its extension
func WriteFile(t *tour.Tour, path string, opts Options) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Export(t, format, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile imports a JSON or YAML tour document
func ReadFile(path string) (*tour.Tour, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Import(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// GenerateExportPath creates a timestamped filename for a tour export
func GenerateExportPath(dir, name string, format Format) string {
	slug := strings.Trim(unsafeName.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "tour"
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", slug, timestamp, format))
}

// FindLatestTour finds the most recently modified importable tour in dir
func FindLatestTour(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read tours directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}
	var tours []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, err := FormatFromPath(entry.Name())
		if err != nil || (format != FormatJSON && format != FormatYAML) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		tours = append(tours, candidate{filepath.Join(dir, entry.Name()), info.ModTime()})
	}

	if len(tours) == 0 {
		return "", fmt.Errorf("no tour files found in %s", dir)
	}

	// newest first
	sort.Slice(tours, func(i, j int) bool {
		return tours[i].modTime.After(tours[j].modTime)
	})

	return tours[0].path, nil
}
