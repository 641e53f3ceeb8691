package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/exchange"
	"github.com/bijoor/site-tour-tools/internal/presenter"
)

var ErrUnknownAction = errors.New("unknown action")

// command is one UI action, from the URL or from a websocket message
type command struct {
	Action string   `json:"action"`
	ID     string   `json:"id,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

type result struct {
	Accepted bool            `json:"accepted"`
	Frame    presenter.Frame `json:"frame"`
}

// dispatch routes a command to the presenter. A rejected transition is not
// an error; only malformed commands are.
func (s *Server) dispatch(cmd command) (bool, error) {
	p := s.session.Presenter()
	switch cmd.Action {
	case "play":
		return p.Play(), nil
	case "pause":
		return p.Pause(), nil
	case "stop":
		return p.Stop(), nil
	case "confirm":
		return p.ConfirmBranch(), nil
	case "step-forward":
		return p.StepForward(), nil
	case "step-back":
		return p.StepBack(), nil
	case "select":
		if cmd.ID == "" {
			return false, errors.New("select needs a segment id")
		}
		return p.SelectBranch(cmd.ID), nil
	case "click-path":
		if cmd.ID == "" {
			return false, errors.New("click-path needs a segment id")
		}
		return p.ClickPath(cmd.ID), nil
	case "speed":
		if cmd.Value == nil {
			return false, errors.New("speed needs a value")
		}
		return p.SetSpeed(*cmd.Value), nil
	}
	return false, fmt.Errorf("%q: %w", cmd.Action, ErrUnknownAction)
}

func (s *Server) respond(c *gin.Context, accepted bool) {
	c.JSON(http.StatusOK, result{Accepted: accepted, Frame: s.session.Presenter().Frame()})
}

func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Machine().Snapshot())
}

func (s *Server) getFrame(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Presenter().Frame())
}

func (s *Server) postControl(c *gin.Context) {
	cmd := command{Action: c.Param("action")}
	if c.Request.ContentLength > 0 {
		var body struct {
			Value *float64 `json:"value"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cmd.Value = body.Value
	}
	accepted, err := s.dispatch(cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.respond(c, accepted)
}

func (s *Server) selectBranch(c *gin.Context) {
	s.respond(c, s.session.Presenter().SelectBranch(c.Param("id")))
}

func (s *Server) clickPath(c *gin.Context) {
	s.respond(c, s.session.Presenter().ClickPath(c.Param("id")))
}

func (s *Server) inspectPOI(c *gin.Context) {
	in, ok := s.session.Presenter().ClickPOI(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "poi not found"})
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) putView(c *gin.Context) {
	var body struct {
		ShowLabels           *bool `json:"showLabels"`
		ShowBranchHighlights *bool `json:"showBranchHighlights"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p := s.session.Presenter()
	if body.ShowLabels != nil {
		p.SetShowLabels(*body.ShowLabels)
	}
	if body.ShowBranchHighlights != nil {
		p.SetShowBranchHighlights(*body.ShowBranchHighlights)
	}
	c.JSON(http.StatusOK, p.Frame())
}

func (s *Server) getTour(c *gin.Context) {
	t := s.session.Tour()
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tour loaded"})
		return
	}
	c.JSON(http.StatusOK, t)
}

// postTour replaces the session's tour with the uploaded document
func (s *Server) postTour(c *gin.Context) {
	format, err := exchange.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := exchange.Import(data, format)
	if err != nil {
		var ve *exchange.ValidationError
		if errors.As(err, &ve) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid tour", "problems": ve.Problems})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	warnings := []string{}
	for _, w := range exchange.Warnings(&t.Graph) {
		warnings = append(warnings, w.Error())
	}
	s.session.Load(t)
	s.log.Info("tour uploaded", zap.String("tour", t.ID), zap.Int("warnings", len(warnings)))
	c.JSON(http.StatusOK, gin.H{"id": t.ID, "warnings": warnings, "frame": s.session.Presenter().Frame()})
}

var contentTypes = map[exchange.Format]string{
	exchange.FormatJSON:    "application/json",
	exchange.FormatYAML:    "application/yaml",
	exchange.FormatSVG:     "image/svg+xml",
	exchange.FormatGeoJSON: "application/geo+json",
}

func (s *Server) exportTour(c *gin.Context) {
	t := s.session.Tour()
	if t == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no tour loaded"})
		return
	}
	format, err := exchange.ParseFormat(c.Param("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	opts := exchange.Options{
		IncludeBackground: c.DefaultQuery("background", "true") == "true",
		IncludeMetadata:   c.DefaultQuery("metadata", "true") == "true",
		Compact:           c.Query("compact") == "true",
	}
	data, err := exchange.Export(t, format, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentTypes[format], data)
}
