package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bijoor/site-tour-tools/internal/config"
	"github.com/bijoor/site-tour-tools/internal/engine"
)

// Server exposes one playback session to a rendering layer over HTTP and
// a websocket frame stream.
type Server struct {
	session *engine.Session
	cfg     config.ServerConfig
	log     *zap.Logger
	router  *gin.Engine

	// streams is cancelled on shutdown; hijacked websocket connections
	// are not closed by http.Server.Shutdown
	streams     context.Context
	stopStreams context.CancelFunc
}

func New(session *engine.Session, cfg config.ServerConfig, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{session: session, cfg: cfg, log: log.Named("server")}
	s.streams, s.stopStreams = context.WithCancel(context.Background())
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/state", s.getState)
		api.GET("/frame", s.getFrame)
		api.POST("/control/:action", s.postControl)
		api.POST("/branches/:id/select", s.selectBranch)
		api.POST("/paths/:id/click", s.clickPath)
		api.POST("/pois/:id/inspect", s.inspectPOI)
		api.PUT("/view", s.putView)

		api.GET("/tour", s.getTour)
		api.POST("/tour", s.postTour)
		api.GET("/tour/export/:format", s.exportTour)

		api.GET("/ws", s.stream)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Addr, Handler: s.router}
	srv.RegisterOnShutdown(s.stopStreams)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}
