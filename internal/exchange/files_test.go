package exchange

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	tr := sampleTour(t)

	for _, name := range []string{"tour.json", "nested/tour.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(tr, path, DefaultOptions()))

		got, err := ReadFile(path)
		require.NoError(t, err)
		assertSameGraph(t, tr, got)
	}

	svgPath := filepath.Join(dir, "tour.svg")
	require.NoError(t, WriteFile(tr, svgPath, DefaultOptions()))
	_, err := ReadFile(svgPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.ErrorIs(t, WriteFile(tr, filepath.Join(dir, "tour.txt"), DefaultOptions()), ErrUnsupportedFormat)
}

func TestReadFileWrapsValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id":"t"}`), 0644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTour)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestGenerateExportPath(t *testing.T) {
	path := GenerateExportPath("exports", "Ground Floor / East", FormatSVG)

	assert.Equal(t, "exports", filepath.Dir(path))
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "ground-floor-east_"), base)
	assert.True(t, strings.HasSuffix(base, ".svg"), base)

	assert.True(t, strings.HasPrefix(filepath.Base(GenerateExportPath("", "!!!", FormatJSON)), "tour_"))
}

func TestFindLatestTour(t *testing.T) {
	dir := t.TempDir()

	files := []string{"a.json", "b.yaml", "c.json", "ignored.svg"}
	for i, f := range files {
		path := filepath.Join(dir, f)
		require.NoError(t, os.WriteFile(path, []byte("test"), 0644))
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}

	latest, err := FindLatestTour(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "c.json"), latest)

	_, err = FindLatestTour(t.TempDir())
	assert.Error(t, err)
	_, err = FindLatestTour(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
