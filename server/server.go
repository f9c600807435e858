package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skiffworks/skiff/config"
	"github.com/skiffworks/skiff/logger"
	"github.com/skiffworks/skiff/openapi"
	"github.com/skiffworks/skiff/params"
	"github.com/skiffworks/skiff/transfer"
)

// Server is an HTTP server instance on Echo. It owns the handler registry,
// the model registry for request bodies and the generated API document.
type Server struct {
	echo     *echo.Echo
	cfg      *config.Config
	logger   logger.Logger
	handlers *HandlerRegistry
	models   *transfer.Registry
	basePath string

	// Application-scope parameter declarations, applied to every handler.
	appDecls []params.Declaration

	docsOnce sync.Once
	docsYAML string
	docsErr  error
}

// New creates a server with middlewares, validation, error handling and
// health endpoints configured.
func New(cfg *config.Config, log logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		customErrorHandler(err, c, cfg)
	}

	SetupMiddlewares(e, log, cfg)

	models := transfer.NewRegistry()
	s := &Server{
		echo:     e,
		cfg:      cfg,
		logger:   log,
		handlers: NewHandlerRegistry(cfg, log, models),
		models:   models,
		basePath: normalizeBasePath(cfg.Server.Path.Base),
	}

	healthPath := s.fullPath(normalizeRoutePath(cfg.Server.Path.Health, "/health"))
	readyPath := s.fullPath(normalizeRoutePath(cfg.Server.Path.Ready, "/ready"))
	e.GET(healthPath, s.healthCheck)
	e.GET(readyPath, s.readyCheck)

	if cfg.Docs.Enabled {
		docsPath := s.fullPath(normalizeRoutePath(cfg.Server.Path.Docs, "/openapi.yaml"))
		e.GET(docsPath, s.serveDocs)
	}

	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Handlers returns the typed handler registry.
func (s *Server) Handlers() *HandlerRegistry { return s.handlers }

// Models returns the model registry request bodies resolve against.
func (s *Server) Models() *transfer.Registry { return s.models }

// DeclareParameter adds an application-scope parameter declaration that
// merges into every handler's table. Must be called before registration.
func (s *Server) DeclareParameter(decl params.Declaration) {
	decl.Scope = params.ScopeApplication
	s.appDecls = append(s.appDecls, decl)
}

// ModuleGroup returns the root route registrar with the base path and the
// application-scope declarations applied.
func (s *Server) ModuleGroup() RouteRegistrar {
	prefix := ""
	if s.basePath != "" && s.basePath != "/" {
		prefix = s.basePath
	}
	decls := append([]params.Declaration(nil), s.appDecls...)
	return newRouteGroup(s.echo.Group(prefix), prefix, params.ScopeApplication, decls)
}

// Start begins accepting requests. It blocks until shutdown or a listener
// error.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.logger.Info().
		Str("service", s.cfg.App.Name).
		Str("version", s.cfg.App.Version).
		Str("env", s.cfg.App.Env).
		Str("address", addr).
		Msg("Starting server")

	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  s.cfg.Server.Timeout.Read,
		WriteTimeout: s.cfg.Server.Timeout.Write,
		IdleTimeout:  s.cfg.Server.Timeout.Idle,
	}
	return s.echo.StartServer(server)
}

// Shutdown gracefully stops the server within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Document builds the OpenAPI document for all registered routes. The
// result is cached; register every route before the first call.
func (s *Server) Document(ctx context.Context) (string, error) {
	s.docsOnce.Do(func() {
		generator := openapi.New(openapi.Config{
			Title:       docTitle(s.cfg),
			Version:     s.cfg.App.Version,
			Description: s.cfg.Docs.Description,
		}, s.models)

		doc, err := generator.Generate(ctx, s.handlers.Routes().OpenAPIRoutes())
		if err != nil {
			s.docsErr = err
			return
		}
		s.docsYAML, s.docsErr = doc.YAML()
	})
	return s.docsYAML, s.docsErr
}

func docTitle(cfg *config.Config) string {
	if cfg.Docs.Title != "" {
		return cfg.Docs.Title
	}
	return cfg.App.Name
}

func (s *Server) serveDocs(c echo.Context) error {
	doc, err := s.Document(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate API document")
		return formatErrorResponse(c, NewInternalServerError("Failed to generate API document"), s.cfg)
	}
	return c.Blob(http.StatusOK, "application/yaml", []byte(doc))
}

func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// customErrorHandler maps unhandled errors onto the standard envelope.
func customErrorHandler(err error, c echo.Context, cfg *config.Config) {
	var apiErr IAPIError
	if goerrors.As(err, &apiErr) {
		_ = formatErrorResponse(c, apiErr, cfg)
		return
	}

	status := http.StatusInternalServerError
	msg := "Internal server error"
	var he *echo.HTTPError
	if goerrors.As(err, &he) {
		status = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}

	// Hide internal details outside development.
	if !cfg.App.IsDevelopment() && status == http.StatusInternalServerError {
		msg = "An error occurred while processing your request"
	}

	base := NewBaseAPIError(statusToErrorCode(status), msg, status)
	if cfg.App.IsDevelopment() {
		base.WithDetails("error", err.Error())
	}
	_ = formatErrorResponse(c, base, cfg)
}

func statusToErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "TOO_MANY_REQUESTS"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// normalizeBasePath ensures a base path starts with "/" and has no
// trailing slash. Empty input stays empty.
func normalizeBasePath(basePath string) string {
	if basePath == "" {
		return ""
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if len(basePath) > 1 {
		basePath = strings.TrimRight(basePath, "/")
	}
	return basePath
}

func normalizeRoutePath(route, defaultRoute string) string {
	if route == "" {
		route = defaultRoute
	}
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return route
}

func (s *Server) fullPath(route string) string {
	if s.basePath == "" || s.basePath == "/" {
		return route
	}
	if route == "/" {
		return s.basePath
	}
	return s.basePath + route
}
