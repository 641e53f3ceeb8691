package background

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	switch filepath.Ext(path) {
	case ".png":
		require.NoError(t, png.Encode(f, img))
	case ".bmp":
		require.NoError(t, bmp.Encode(f, img))
	case ".tiff":
		require.NoError(t, tiff.Encode(f, img, nil))
	default:
		t.Fatalf("no encoder for %s", path)
	}
}

func TestProbeRasterFormats(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		w, h int
	}{
		{"plan.png", 640, 480},
		{"plan.bmp", 320, 200},
		{"plan.tiff", 100, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name)
			writeImage(t, path, tt.w, tt.h)

			bg, err := Probe(path, "", 0)
			require.NoError(t, err)
			assert.Equal(t, tt.name, bg.URL)
			assert.Equal(t, float64(tt.w), bg.Width)
			assert.Equal(t, float64(tt.h), bg.Height)
		})
	}
}

func TestProbeDirectoryPages(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, filepath.Join(dir, "b_second.png"), 20, 10)
	writeImage(t, filepath.Join(dir, "a_first.png"), 40, 30)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	src, err := Open(dir)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 2, src.PageCount())

	bg, err := Probe(dir, "https://cdn.example/plan", 1)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/plan", bg.URL)
	assert.Equal(t, 20.0, bg.Width)

	_, err = Probe(dir, "", 5)
	assert.Error(t, err)
}

func TestProbeRejects(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "plan.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))

	_, err := Probe(txt, "", 0)
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = Probe(filepath.Join(dir, "missing.png"), "", 0)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(broken, []byte("not a png"), 0644))
	_, err = Probe(broken, "", 0)
	assert.Error(t, err)
}
