// Package server exposes a sharenv Store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/zoobzio/sharenv"
	"github.com/zoobzio/sharenv/pkg/shell"
)

// EnvPath is the route serving the shell script.
const EnvPath = "/env"

// Response headers.
const (
	HeaderVersion = "X-Sharenv-Version"
	HeaderEmpty   = "X-Sharenv-Empty"
)

// Status reports reload health for the health endpoint.
// *sharenv.Coordinator satisfies it.
type Status interface {
	State() sharenv.State
	Skipped() []sharenv.SkippedEntry
}

// RequestRecorder receives per-request measurements.
type RequestRecorder interface {
	RecordRequest(route string, code int, duration time.Duration)
}

// Server serves renderings of a Store.
type Server struct {
	store    *sharenv.Store
	status   Status
	varsDir  string
	recorder RequestRecorder
	metrics  http.Handler
	origins  []string
	logger   *log.Logger
	engine   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithStatus reports coordinator state on /health.
func WithStatus(status Status) Option {
	return func(s *Server) {
		s.status = status
	}
}

// WithVarsDir reports the variables directory on /health.
func WithVarsDir(dir string) Option {
	return func(s *Server) {
		s.varsDir = dir
	}
}

// WithRecorder records request counts and latency.
func WithRecorder(recorder RequestRecorder) Option {
	return func(s *Server) {
		s.recorder = recorder
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithCORS allows browsers on origins to read the endpoints. "*" allows
// every origin. No CORS headers are sent when origins is empty.
func WithCORS(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Server for store.
func New(store *sharenv.Store, opts ...Option) *Server {
	s := &Server{
		store:  store,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.observe())
	if len(s.origins) > 0 {
		engine.Use(cors.New(corsConfig(s.origins)))
	}
	engine.SetHTMLTemplate(instructionsHTML)

	engine.GET("/", s.instructions)
	engine.GET("/health", s.health)
	engine.GET(EnvPath, s.env)
	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics))
	}

	s.engine = engine
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully
// within shutdownTimeout.
func (s *Server) Serve(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.serve(ctx, ln, shutdownTimeout)
}

func (s *Server) serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) env(c *gin.Context) {
	r := s.store.Render()
	c.Header(HeaderVersion, strconv.FormatUint(r.Version, 10))
	if r.Empty() {
		c.Header(HeaderEmpty, "true")
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(shell.Script(r)))
}

func (s *Server) health(c *gin.Context) {
	body := gin.H{
		"status":    "ok",
		"vars_dir":  s.varsDir,
		"variables": s.store.Len(),
		"version":   s.store.Version(),
	}
	if s.status != nil {
		state := s.status.State()
		body["state"] = state.String()
		body["skipped"] = len(s.status.Skipped())
		if !state.Current() {
			body["status"] = state.String()
		}
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) instructions(c *gin.Context) {
	endpoint := baseURL(c) + EnvPath
	if strings.Contains(strings.ToLower(c.GetHeader("User-Agent")), "curl") {
		c.String(http.StatusOK, "sharenv - Quick Install:\nexport SHARENV_ENDPOINT=%q\neval \"$(curl -s $SHARENV_ENDPOINT)\"\n", endpoint)
		return
	}
	c.HTML(http.StatusOK, "instructions", gin.H{"Endpoint": endpoint})
}

// observe logs and records every request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		if s.recorder != nil {
			s.recorder.RecordRequest(route, code, duration)
		}
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", code,
			"client", c.ClientIP(),
			"duration", duration,
		)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	cfg.ExposeHeaders = []string{HeaderVersion, HeaderEmpty}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}

var instructionsHTML = template.Must(template.New("instructions").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>sharenv - Installation Instructions</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; line-height: 1.6; color: #333; }
        h1 { color: #2c3e50; border-bottom: 3px solid #3498db; padding-bottom: 10px; }
        pre { background-color: #2c3e50; color: #ecf0f1; padding: 15px; border-radius: 5px; overflow-x: auto; }
        code { background-color: #f4f4f4; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>sharenv - Installation Instructions</h1>
    <p><strong>sharenv</strong> shares environment variables and aliases across machines.</p>

    <h2>Step 1: Set your endpoint</h2>
    <p>Add this line to your shell profile (<code>~/.bashrc</code>, <code>~/.zshrc</code>):</p>
    <pre>export SHARENV_ENDPOINT="{{.Endpoint}}"</pre>

    <h2>Step 2: Load environment variables</h2>
    <pre>eval "$(curl -s $SHARENV_ENDPOINT)"</pre>

    <h2>Step 3: Apply changes</h2>
    <pre>source ~/.bashrc  # or ~/.zshrc</pre>

    <h2>How it works</h2>
    <ul>
        <li>Variables and aliases are served as shell statements.</li>
        <li>Changes on the server are picked up without a restart.</li>
        <li>Variables with several values rotate on every request.</li>
    </ul>
</body>
</html>
`))
