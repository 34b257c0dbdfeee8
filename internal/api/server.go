// Package api serves the JSON control API: node listing and mutation,
// refresh triggers, interval changes and Prometheus metrics.
package api

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	xerrors "github.com/n0ctu/xmrig-monitor/internal/errors"
	"github.com/n0ctu/xmrig-monitor/internal/logger"
	"github.com/n0ctu/xmrig-monitor/internal/node"
	"github.com/n0ctu/xmrig-monitor/internal/observability"
)

// NodeStore is the registry surface the API drives.
type NodeStore interface {
	Snapshots() []node.Snapshot
	Snapshot(index int) (node.Snapshot, error)
	AddNode(host string, port int) (node.Identity, error)
	Edit(index int, host string, port int) error
	Remove(index int) (node.Identity, error)
	RefreshNode(ctx context.Context, index int) error
	Path() string
	Open(path string) error
}

// Scheduler is the driver loop surface the API drives.
type Scheduler interface {
	Trigger()
	SetInterval(seconds int) bool
	Interval() int
}

// Options configures the echo instance built by NewEcho.
type Options struct {
	// AccessLog receives one JSON line per request. nil disables access logging.
	AccessLog io.Writer
	// Sentry adds the Sentry middleware; set it when observability.InitSentry succeeded.
	Sentry bool
	// Metrics serves GET /metrics when non-nil.
	Metrics http.Handler
}

// Server holds the handlers.
type Server struct {
	store NodeStore
	sched Scheduler
	log   logger.Logger
	now   func() time.Time
}

// NewServer creates the handler set.
func NewServer(store NodeStore, sched Scheduler, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewEnvLogger("[api]")
	}
	return &Server{store: store, sched: sched, log: log, now: time.Now}
}

// Register mounts the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.GetHealth)

	g := e.Group("/api")
	g.GET("/nodes", s.ListNodes)
	g.POST("/nodes", s.AddNode)
	g.GET("/nodes/:index", s.GetNode)
	g.PUT("/nodes/:index", s.EditNode)
	g.DELETE("/nodes/:index", s.RemoveNode)
	g.POST("/nodes/:index/refresh", s.RefreshNode)
	g.POST("/refresh", s.RefreshAll)
	g.GET("/interval", s.GetInterval)
	g.PUT("/interval", s.SetInterval)
	g.GET("/nodes-file", s.GetNodesFile)
	g.PUT("/nodes-file", s.OpenNodesFile)
}

// NewEcho builds an echo instance with the middleware stack and routes.
func NewEcho(s *Server, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(io.Discard)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: echo.HeaderXRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Request().Header.Set(echo.HeaderXRequestID, id)
		},
	}))
	if opts.Sentry {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic:         true,
			WaitForDelivery: false,
		}))
	}
	if opts.AccessLog != nil {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: `{"time":"${time_rfc3339}","request_id":"${header:X-Request-ID}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}","error":"${error}"}` + "\n",
			Output: opts.AccessLog,
		}))
	}
	e.Use(middleware.Recover())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err != nil {
				observability.CaptureError(err, map[string]string{
					"component": "api",
					"route":     c.Path(),
				}, map[string]interface{}{
					"method": c.Request().Method,
					"uri":    c.Request().RequestURI,
				})
			}
			return err
		}
	})

	s.Register(e)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return e
}

// ListenAndServe serves h on addr until ctx is cancelled, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          log.New(io.Discard, "", 0),
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	err := server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	if err != nil {
		return xerrors.WrapWithCode(err, xerrors.ErrConfig,
			"Failed to start the control API on "+addr,
			"Pick a free address with --listen or api.listen")
	}
	return nil
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch xerrors.Code(err) {
	case xerrors.ErrIndex:
		status = http.StatusNotFound
	case xerrors.ErrInput:
		status = http.StatusBadRequest
	case xerrors.ErrTransport, xerrors.ErrProtocol, xerrors.ErrPayload:
		status = http.StatusBadGateway
	}
	return s.failWith(c, status, err)
}

func (s *Server) failWith(c echo.Context, status int, err error) error {
	s.log.Warn("%s %s: %s", c.Request().Method, c.Request().URL.Path, xerrors.Summary(err))
	return c.JSON(status, errorBody{Error: xerrors.Summary(err), Code: xerrors.Code(err)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorBody{Error: msg, Code: xerrors.ErrInput})
}
