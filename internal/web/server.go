package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spacesedan/reviewflow/internal/clients"
	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/spacesedan/reviewflow/internal/monitoring"
	"github.com/spacesedan/reviewflow/internal/processing"
)

// Pipeline is what the handlers need from processing.Pipeline.
type Pipeline interface {
	Search(ctx context.Context, req processing.SearchRequest) (*processing.SearchOutcome, error)
	Analyze(ctx context.Context, req processing.AnalyzeRequest) (*processing.AnalyzeOutcome, error)
	Snapshot(ctx context.Context, key string, limit int) (*processing.Snapshot, error)
	Reset(ctx context.Context) error
}

// CredentialStatus is shown on the page. Secrets themselves never reach
// the browser.
type CredentialStatus struct {
	Naver  bool `json:"naver"`
	OpenAI bool `json:"openai"`
}

type Options struct {
	DefaultCount int
	DefaultSort  models.SortMode
	Credentials  CredentialStatus
	Metrics      *monitoring.Metrics
}

type Server struct {
	echo     *echo.Echo
	pipeline Pipeline
	opts     Options
}

func NewServer(p Pipeline, opts Options) *Server {
	if opts.DefaultCount <= 0 {
		opts.DefaultCount = clients.DEFAULT_DISPLAY
	}
	if !opts.DefaultSort.Valid() {
		opts.DefaultSort = models.SortByDate
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = newTemplateRenderer()
	e.HTTPErrorHandler = jsonErrorHandler
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.Info("[HTTP] Request", attrs...)
			return nil
		},
	}))

	s := &Server{echo: e, pipeline: p, opts: opts}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if s.opts.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.opts.Metrics.Handler()))
	}

	s.echo.GET("/", s.index)
	s.echo.POST("/search", s.search)
	s.echo.POST("/analyze", s.analyze)
	s.echo.POST("/reset", s.reset)

	api := s.echo.Group("/api")
	api.POST("/search", s.apiSearch)
	api.POST("/analyze", s.apiAnalyze)
	api.GET("/results", s.apiResults)
	api.GET("/analysis", s.apiAnalysis)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	slog.Info("[HTTP] Listening", slog.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("[HTTP] server stopped: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// jsonErrorHandler answers {"error": "..."} with the status carried by an
// *echo.HTTPError, or 500 otherwise.
func jsonErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if code >= http.StatusInternalServerError {
		req := c.Request()
		slog.Error("[HTTP] Request failed",
			slog.Int("status", code),
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()))
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

// statusFor maps a pipeline error onto an HTTP status for the JSON API.
func statusFor(err error) int {
	switch {
	case errors.Is(err, processing.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, clients.ErrMissingCredential):
		return http.StatusPreconditionFailed
	case errors.Is(err, processing.ErrEmptyResult):
		return http.StatusNotFound
	case errors.Is(err, clients.ErrTransport), errors.Is(err, clients.ErrDecode):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func apiError(err error) error {
	return echo.NewHTTPError(statusFor(err), processing.UserMessage(err)).SetInternal(err)
}
