package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bijoor/site-tour-tools/internal/config"
	"github.com/bijoor/site-tour-tools/internal/engine"
	"github.com/bijoor/site-tour-tools/internal/geometry"
	"github.com/bijoor/site-tour-tools/internal/playback"
	"github.com/bijoor/site-tour-tools/internal/presenter"
	"github.com/bijoor/site-tour-tools/internal/tour"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type idleScheduler struct{}

func (idleScheduler) Start(func(time.Time)) {}
func (idleScheduler) Cancel()               {}

func forkTour() *tour.Tour {
	mk := func(id, start, end string, a, b geometry.Point) tour.PathSegment {
		return tour.PathSegment{ID: id, StartPOI: start, EndPOI: end, Style: tour.StyleSolid,
			Points: []tour.PathPoint{{ID: id + "-a", X: a.X, Y: a.Y}, {ID: id + "-b", X: b.X, Y: b.Y}}}
	}
	return &tour.Tour{
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
}

func newServer(t *testing.T, load bool) (*engine.Session, *Server) {
	t.Helper()
	cfg := config.Default()
	session := engine.NewSession(cfg, nil, engine.WithScheduler(idleScheduler{}))
	t.Cleanup(session.Close)
	if load {
		session.Load(forkTour())
	}
	return session, New(session, cfg.Server, nil)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestStateAndFrame(t *testing.T) {
	_, s := newServer(t, true)

	w := do(t, s.Handler(), http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[playback.State](t, w)
	assert.Equal(t, playback.Ready, st.Phase)
	assert.Equal(t, []string{"gate"}, st.VisitedPOIs)

	w = do(t, s.Handler(), http.MethodGet, "/api/frame", "")
	require.Equal(t, http.StatusOK, w.Code)
	f := decode[presenter.Frame](t, w)
	assert.Len(t, f.Paths, 3)
	assert.True(t, f.Controls.CanPlay)
}

func TestControlFlow(t *testing.T) {
	session, s := newServer(t, true)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/control/step-forward", "")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[result](t, w)
	assert.True(t, res.Accepted)
	assert.True(t, res.Frame.IsBranchSelectionMode)

	w = do(t, h, http.MethodPost, "/api/branches/from-yard/select", "")
	assert.True(t, decode[result](t, w).Accepted)

	w = do(t, h, http.MethodPost, "/api/branches/in/select", "")
	assert.False(t, decode[result](t, w).Accepted)

	w = do(t, h, http.MethodPost, "/api/control/confirm", "")
	res = decode[result](t, w)
	assert.True(t, res.Accepted)
	assert.Equal(t, playback.Playing, res.Frame.Phase)
	assert.True(t, session.Machine().Snapshot().IsReverseTraversal)

	w = do(t, h, http.MethodPost, "/api/control/speed", `{"value": 2.5}`)
	assert.True(t, decode[result](t, w).Accepted)
	assert.Equal(t, 2.5, session.Machine().Snapshot().Speed)

	w = do(t, h, http.MethodPost, "/api/control/pause", "")
	assert.True(t, decode[result](t, w).Accepted)
	w = do(t, h, http.MethodPost, "/api/control/pause", "")
	assert.False(t, decode[result](t, w).Accepted)
}

func TestControlErrors(t *testing.T) {
	_, s := newServer(t, true)
	h := s.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/control/jump", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/control/speed", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/control/speed", `{"value":`).Code)
}

func TestPathClickAndInspect(t *testing.T) {
	session, s := newServer(t, true)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/paths/to-lab/click", "")
	assert.False(t, decode[result](t, w).Accepted)

	w = do(t, h, http.MethodPost, "/api/pois/hall/inspect", "")
	require.Equal(t, http.StatusOK, w.Code)
	in := decode[presenter.Inspection](t, w)
	assert.Equal(t, "Hall", in.POI.Label)
	assert.Equal(t, []string{"to-lab"}, in.Outgoing)
	assert.Equal(t, playback.Ready, session.Machine().Snapshot().Phase)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/pois/nowhere/inspect", "").Code)
}

func TestPutView(t *testing.T) {
	_, s := newServer(t, true)
	w := do(t, s.Handler(), http.MethodPut, "/api/view", `{"showLabels": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	f := decode[presenter.Frame](t, w)
	for _, p := range f.POIs {
		assert.False(t, p.ShowLabel)
	}
	assert.True(t, s.session.Presenter().View().ShowBranchHighlights)
}

func TestTourUploadAndExport(t *testing.T) {
	session, s := newServer(t, false)
	h := s.Handler()

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/tour", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/tour/export/svg", "").Code)

	body, err := json.Marshal(forkTour())
	require.NoError(t, err)
	w := do(t, h, http.MethodPost, "/api/tour", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, playback.Ready, session.Machine().Snapshot().Phase)

	w = do(t, h, http.MethodGet, "/api/tour", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Fork", decode[tour.Tour](t, w).Name)

	w = do(t, h, http.MethodGet, "/api/tour/export/svg?background=false", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	assert.NotContains(t, w.Body.String(), "<image")

	w = do(t, h, http.MethodGet, "/api/tour/export/geojson", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FeatureCollection")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/tour/export/docx", "").Code)
}

func TestTourUploadRejectsInvalid(t *testing.T) {
	_, s := newServer(t, false)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/api/tour", `{"name":"x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "valid id")

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/tour?format=svg", "<svg/>").Code)
}

func TestUploadReportsWarnings(t *testing.T) {
	_, s := newServer(t, false)
	tr := forkTour()
	tr.Paths[1].EndPOI = "ghost"
	body, err := json.Marshal(tr)
	require.NoError(t, err)

	w := do(t, s.Handler(), http.MethodPost, "/api/tour", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[struct {
		Warnings []string `json:"warnings"`
	}](t, w)
	assert.Len(t, got.Warnings, 1)
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(message) bool) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var m message
		require.NoError(t, conn.ReadJSON(&m))
		if match(m) {
			return m
		}
	}
}

func TestWebsocketStream(t *testing.T) {
	_, s := newServer(t, true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readUntil(t, conn, func(m message) bool { return m.Type == "frame" })
	require.NotNil(t, first.Frame)
	assert.Equal(t, playback.Ready, first.Frame.Phase)

	require.NoError(t, conn.WriteJSON(command{Action: "play"}))
	pushed := readUntil(t, conn, func(m message) bool { return m.Type == "frame" && m.Frame.IsPlaying })
	assert.NotZero(t, pushed.Seq)

	require.NoError(t, conn.WriteJSON(command{Action: "click-poi", ID: "lab"}))
	in := readUntil(t, conn, func(m message) bool { return m.Type == "inspection" })
	assert.Equal(t, "Lab", in.Inspection.POI.Label)

	require.NoError(t, conn.WriteJSON(command{Action: "warp"}))
	bad := readUntil(t, conn, func(m message) bool { return m.Type == "error" })
	assert.Contains(t, bad.Error, "unknown action")
}

func TestStreamClosesOnShutdown(t *testing.T) {
	_, s := newServer(t, true)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	readUntil(t, conn, func(m message) bool { return m.Type == "frame" })

	s.stopStreams()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var m message
	assert.Error(t, conn.ReadJSON(&m))
}

func TestDispatchRequiresArguments(t *testing.T) {
	_, s := newServer(t, true)
	for _, cmd := range []command{{Action: "select"}, {Action: "click-path"}, {Action: "speed"}} {
		_, err := s.dispatch(cmd)
		assert.Error(t, err, cmd.Action)
	}
	_, err := s.dispatch(command{Action: "nope"})
	assert.ErrorIs(t, err, ErrUnknownAction)

	v := 0.5
	ok, err := s.dispatch(command{Action: "speed", Value: &v})
	require.NoError(t, err)
	assert.True(t, ok)
}
