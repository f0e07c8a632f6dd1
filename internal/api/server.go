// Package api exposes the HTTP surface: POST /process and POST
// /callback, both answered with the same Response shape. It is the
// thinnest possible layer over internal/pipeline.Dispatcher — gin binds
// and validates the request body, the dispatcher does everything else.
package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/BTreeMap/GoalForge/internal/models"
	"github.com/gin-gonic/gin"
)

// Dispatcher is the exact subset of internal/pipeline.Dispatcher's API the
// server depends on, named at the point of use so this package does not
// need to import internal/pipeline's other collaborators.
type Dispatcher interface {
	HandleMessage(ctx context.Context, userID, text string, now time.Time) models.Response
	HandleCallback(ctx context.Context, userID, callbackData string, now time.Time) models.Response
}

// Server wraps a gin.Engine exposing /process and /callback.
type Server struct {
	engine     *gin.Engine
	dispatcher Dispatcher
	addr       string
}

// NewServer builds a Server. addr is the listen address (e.g. ":8080").
func NewServer(addr string, dispatcher Dispatcher) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger())

	s := &Server{engine: engine, dispatcher: dispatcher, addr: addr}
	engine.POST("/process", s.handleProcess)
	engine.POST("/callback", s.handleCallback)
	return s
}

// Engine exposes the underlying gin.Engine for tests (httptest.Server).
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run starts the HTTP server; it blocks until the server stops or errors.
func (s *Server) Run() error {
	slog.Info("api: listening", "addr", s.addr)
	return s.engine.Run(s.addr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("api: request handled",
			"method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "duration", time.Since(start))
	}
}
