package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sandeepkv93/taskboard/internal/board"
	"github.com/sandeepkv93/taskboard/internal/scheduler"
)

const CronSecretHeader = "X-Cron-Secret"

// Server exposes the board passes to an external cron and the read path to
// anything that can speak HTTP.
type Server struct {
	engine *board.Engine
	clock  scheduler.Clock
	secret string
	logger *slog.Logger
	router *gin.Engine
}

// NewServer wires routes. An empty secret leaves the job endpoints open.
func NewServer(engine *board.Engine, clock scheduler.Clock, secret string, logger *slog.Logger) *Server {
	if clock == nil {
		clock = scheduler.RealClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	router := gin.New()
	s := &Server{
		engine: engine,
		clock:  clock,
		secret: secret,
		logger: logger,
		router: router,
	}

	router.Use(gin.Recovery(), s.requestLog)

	router.GET("/healthz", s.handleHealth)

	jobs := router.Group("/jobs", s.requireSecret)
	{
		jobs.POST("/daily-board", s.handleDaily)
		jobs.POST("/notifications", s.handleNotifications)
	}

	router.GET("/tasks/:id/status", s.handleTaskStatus)
	router.GET("/users/:id/tasks", s.handleUserTasks)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on addr until ctx is done, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requireSecret(c *gin.Context) {
	if s.secret == "" {
		c.Next()
		return
	}
	got := c.GetHeader(CronSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid cron secret"})
		return
	}
	c.Next()
}

func (s *Server) requestLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("http request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"elapsed", time.Since(start),
	)
}
