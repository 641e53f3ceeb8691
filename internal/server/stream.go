package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bijoor/site-tour-tools/internal/presenter"
)

var upgrader = websocket.Upgrader{
	// the rendering layer is served from anywhere during authoring
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// message is everything written to a stream. Frames carry the change
// sequence so clients can drop deliveries that arrive out of order.
type message struct {
	Type       string                `json:"type"`
	Seq        uint64                `json:"seq,omitempty"`
	Frame      *presenter.Frame      `json:"frame,omitempty"`
	Inspection *presenter.Inspection `json:"inspection,omitempty"`
	Accepted   *bool                 `json:"accepted,omitempty"`
	Error      string                `json:"error,omitempty"`
}

type stream struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc

	// latest undelivered frame; older ones are superseded
	frames chan message
}

// offer queues m, replacing a frame the writer has not picked up yet
func (st *stream) offer(m message) {
	for {
		select {
		case st.frames <- m:
			return
		default:
		}
		select {
		case <-st.frames:
		default:
		}
	}
}

func (st *stream) write(m message, timeout time.Duration) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if timeout > 0 {
		_ = st.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return st.conn.WriteJSON(m)
}

// stream upgrades to a websocket that pushes a frame after every state
// change and accepts commands inbound.
func (s *Server) stream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(s.streams)
	st := &stream{conn: conn, ctx: ctx, cancel: cancel, frames: make(chan message, 1)}
	defer func() {
		cancel()
		conn.Close()
		s.log.Debug("websocket closed")
	}()

	p := s.session.Presenter()
	unsubscribe := p.Subscribe(func(seq uint64, f presenter.Frame) {
		st.offer(message{Type: "frame", Seq: seq, Frame: &f})
	})
	defer unsubscribe()

	first := p.Frame()
	if err := st.write(message{Type: "frame", Frame: &first}, s.cfg.WriteTimeout); err != nil {
		s.log.Warn("initial frame failed", zap.Error(err))
		return
	}

	go s.pump(st)

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		if err := st.write(s.handle(cmd), s.cfg.WriteTimeout); err != nil {
			s.log.Warn("websocket reply failed", zap.Error(err))
			return
		}
	}
}

// handle answers one inbound command
func (s *Server) handle(cmd command) message {
	if cmd.Action == "click-poi" {
		in, ok := s.session.Presenter().ClickPOI(cmd.ID)
		if !ok {
			return message{Type: "error", Error: "poi not found"}
		}
		return message{Type: "inspection", Inspection: &in}
	}
	accepted, err := s.dispatch(cmd)
	if err != nil {
		return message{Type: "error", Error: err.Error()}
	}
	return message{Type: "result", Accepted: &accepted}
}

// pump writes queued frames and keeps the connection alive with pings
func (s *Server) pump(st *stream) {
	interval := s.cfg.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ping := time.NewTicker(interval)
	defer ping.Stop()

	for {
		select {
		case <-st.ctx.Done():
			// unblock the reader when the server shuts down
			st.conn.Close()
			return
		case m := <-st.frames:
			if err := st.write(m, s.cfg.WriteTimeout); err != nil {
				s.log.Debug("frame push failed", zap.Error(err))
				st.cancel()
			}
		case <-ping.C:
			st.mu.Lock()
			err := st.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second))
			st.mu.Unlock()
			if err != nil {
				s.log.Debug("ping failed", zap.Error(err))
				st.cancel()
			}
		}
	}
}
