package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijoor/site-tour-tools/internal/exchange"
	"github.com/bijoor/site-tour-tools/internal/geometry"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := newRootCmd(newApp(&buf))
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func writeFork(t *testing.T, dir string) string {
	t.Helper()
	mk := func(id, start, end string, a, b geometry.Point) tour.PathSegment {
		return tour.PathSegment{ID: id, StartPOI: start, EndPOI: end, Style: tour.StyleSolid,
			Points: []tour.PathPoint{{ID: id + "-a", X: a.X, Y: a.Y}, {ID: id + "-b", X: b.X, Y: b.Y}}}
	}
	tr := &tour.Tour{
		ID:              "tour_fork",
		Name:            "Fork",
		BackgroundImage: tour.Background{URL: "plan.png", Width: 300, Height: 200},
		Graph: tour.Graph{
			POIs: []tour.POI{
				{ID: "gate", Label: "Gate", Position: geometry.Point{X: 0, Y: 0}},
				{ID: "hall", Label: "Hall", Position: geometry.Point{X: 100, Y: 0}},
				{ID: "lab", Label: "Lab", Position: geometry.Point{X: 200, Y: 0}},
				{ID: "yard", Label: "Yard", Position: geometry.Point{X: 100, Y: 100}},
			},
			Paths: []tour.PathSegment{
				mk("in", "gate", "hall", geometry.Point{X: 0}, geometry.Point{X: 100}),
				mk("to-lab", "hall", "lab", geometry.Point{X: 100}, geometry.Point{X: 200}),
				mk("from-yard", "yard", "hall", geometry.Point{X: 100, Y: 100}, geometry.Point{X: 100}),
			},
		},
	}
	path := filepath.Join(dir, "fork.json")
	require.NoError(t, exchange.WriteFile(tr, path, exchange.DefaultOptions()))
	return path
}

func TestNewFromFloorPlan(t *testing.T) {
	dir := t.TempDir()
	plan := filepath.Join(dir, "ground floor.png")
	f, err := os.Create(plan)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 640, 480))))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "tours", "ground.json")
	stdout, err := execute(t, "new", plan, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "(640x480)")
	assert.Contains(t, stdout, "[+++] Created")

	got, err := exchange.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ground floor", got.Name)
	assert.Equal(t, "ground floor.png", got.BackgroundImage.URL)
	assert.Empty(t, got.POIs)

	_, err = execute(t, "new", filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFork(t, dir)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name":"x"}`), 0644))

	stdout, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"Fork", 4 POIs, 3 paths, 0 warnings`)

	stdout, err = execute(t, "validate", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, stdout, "[-]")
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	src := writeFork(t, dir)

	out := filepath.Join(dir, "out", "fork.svg")
	stdout, err := execute(t, "export", src, "-f", "svg", "-o", out, "--no-background")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[+++] Exported svg")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.NotContains(t, string(data), "<image")

	_, err = execute(t, "export", src, "-f", "docx")
	assert.ErrorIs(t, err, exchange.ErrUnsupportedFormat)
}

func TestBranches(t *testing.T) {
	src := writeFork(t, t.TempDir())

	stdout, err := execute(t, "branches", src, "--poi", "hall")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hall (Hall): 3 branches")
	assert.Contains(t, stdout, "to-lab forward")
	assert.Contains(t, stdout, "from-yard reverse")

	_, err = execute(t, "branches", src, "--poi", "attic")
	assert.ErrorIs(t, err, tour.ErrPOINotFound)
}

func TestPlay(t *testing.T) {
	src := writeFork(t, t.TempDir())

	stdout, err := execute(t, "play", src, "--segment-duration", "20ms", "--report", "0", "--choose", "from-yard")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[*] Visited Gate (gate)")
	assert.Contains(t, stdout, "[+++] Tour complete: 3 of 4 POIs visited")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "tourplay.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("playback:\n  speed: -1\n"), 0644))

	_, err := execute(t, "--config", cfg, "branches", writeFork(t, dir))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "playback.speed")
}
