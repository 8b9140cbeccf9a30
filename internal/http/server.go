package http

import (
	stdhttp "net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"pressroom/app/internal/blocks"
	"pressroom/app/internal/content"
	"pressroom/app/internal/release"
)

// Options configures the HTTP server wiring.
type Options struct {
	Repository    content.Repository
	Writer        *content.Writer
	Pager         *content.Pager
	Matcher       *content.Matcher
	Renderer      *blocks.Renderer
	Dispatcher    *release.Dispatcher
	Database      *gorm.DB
	Logger        *logrus.Logger
	SentryHub     *sentry.Hub
	WebhookSecret string
	RateLimiter   RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma.
type Server struct {
	api           huma.API
	mux           *stdhttp.ServeMux
	repository    content.Repository
	writer        *content.Writer
	pager         *content.Pager
	matcher       *content.Matcher
	renderer      *blocks.Renderer
	dispatcher    *release.Dispatcher
	db            *gorm.DB
	logger        *logrus.Logger
	sentry        *sentry.Hub
	webhookSecret string
	rateLimiter   *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Repository == nil {
		return nil, eris.New("content repository is required")
	}
	if opts.Writer == nil {
		return nil, eris.New("content writer is required")
	}
	if opts.Pager == nil {
		return nil, eris.New("content pager is required")
	}
	if opts.Matcher == nil {
		return nil, eris.New("search matcher is required")
	}
	if opts.Renderer == nil {
		return nil, eris.New("block renderer is required")
	}
	if opts.Dispatcher == nil {
		return nil, eris.New("release dispatcher is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig("Pressroom", "1.0.0")

	api := humago.New(mux, config)

	srv := &Server{
		api:           api,
		mux:           mux,
		repository:    opts.Repository,
		writer:        opts.Writer,
		pager:         opts.Pager,
		matcher:       opts.Matcher,
		renderer:      opts.Renderer,
		dispatcher:    opts.Dispatcher,
		db:            opts.Database,
		logger:        opts.Logger,
		sentry:        opts.SentryHub,
		webhookSecret: opts.WebhookSecret,
	}

	settings := opts.RateLimiter
	if settings.Burst <= 0 {
		return nil, eris.New("rate limiter burst must be greater than zero")
	}
	if settings.RequestsPerSecond <= 0 {
		return nil, eris.New("rate limiter requests per second must be greater than zero")
	}
	if settings.ClientTTL <= 0 {
		return nil, eris.New("rate limiter client TTL must be greater than zero")
	}

	srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)

	srv.registerMiddlewares()
	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.mux
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.recoveryMiddleware(),
		s.requestIDMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerPostRoutes()
	s.registerAuthorRoutes()
	s.registerSearchRoute()
	s.registerTagsRoute()
	s.registerPageRoute()
	s.registerWebhookRoute()
	s.registerHealthRoute()
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.mux.ServeHTTP(w, r)
}
