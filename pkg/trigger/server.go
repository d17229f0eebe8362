package trigger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"flickrscrapr/pkg/config"
	"flickrscrapr/pkg/extractor"
	"flickrscrapr/pkg/logger"
	"flickrscrapr/pkg/relay"
)

const (
	shutdownTimeout = 10 * time.Second
	corsMaxAge      = "600"
)

// TriggerRequest is a page rendered by a browser
type TriggerRequest struct {
	URL  string `json:"url" binding:"required"`
	HTML string `json:"html" binding:"required"`
}

// Server exposes the scrape action over HTTP so a browser can post the page
// it is showing
type Server struct {
	router    *gin.Engine
	server    *http.Server
	extractor *extractor.Extractor
	sender    relay.Sender
	logger    logger.Logger
}

// NewServer creates the trigger server
func NewServer(cfg config.ListenConfig, ext *extractor.Extractor, sender relay.Sender, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	router := gin.New()

	s := &Server{
		router:    router,
		extractor: ext,
		sender:    sender,
		logger:    log.WithField("component", "server"),
	}

	router.Use(gin.Recovery())
	router.Use(s.requestLogger())
	router.Use(corsMiddleware(cfg.AllowedOrigins))

	router.GET("/healthz", s.health)
	router.POST("/trigger", s.trigger)
	router.OPTIONS("/trigger", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("Trigger server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down trigger server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) trigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	action := NewAction(StaticLoader{HTML: req.HTML}, s.extractor, s.sender, s.logger)

	msg, err := action.Fire(c.Request.Context(), req.URL)
	if err != nil {
		_ = c.Error(err)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"type": msg.Type})
}

// statusForError maps scrape failures to HTTP statuses
func statusForError(err error) int {
	var extractErr *extractor.ExtractionError
	switch {
	case errors.Is(err, extractor.ErrNotTargetPage),
		errors.Is(err, extractor.ErrNoDownloadLink),
		errors.As(err, &extractErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, relay.ErrStopped), errors.Is(err, relay.ErrNotStarted):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// corsMiddleware lets pages on the allowed origins post to the server.
// Requests from other origins get no CORS headers, so browsers block them.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		allowed := allowedOrigin(origin, allowedOrigins)
		if allowed == "" {
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowed)
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		h.Set("Access-Control-Max-Age", corsMaxAge)
		h.Add("Vary", "Origin")

		// Chrome asks before a public page may reach a loopback address
		if c.GetHeader("Access-Control-Request-Private-Network") == "true" {
			h.Set("Access-Control-Allow-Private-Network", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// allowedOrigin returns the value for Access-Control-Allow-Origin, or ""
// when origin may not call the server
func allowedOrigin(origin string, allowedOrigins []string) string {
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			return "*"
		}
		if strings.TrimRight(allowed, "/") == origin {
			return origin
		}
	}
	return ""
}

// requestLogger logs one line per request
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := map[string]interface{}{
			"method":    c.Request.Method,
			"path":      path,
			"status":    c.Writer.Status(),
			"duration":  time.Since(start),
			"client_ip": c.ClientIP(),
		}

		if len(c.Errors) > 0 {
			fields["errors"] = strings.Join(c.Errors.Errors(), "; ")
			s.logger.WarnWithFields("HTTP request with errors", fields)
			return
		}
		s.logger.InfoWithFields("HTTP request", fields)
	}
}
