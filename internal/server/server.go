// Package server exposes the GraphQL API and its supporting endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/hmans/larder/internal/config"
	"github.com/hmans/larder/internal/graph"
)

const (
	// DefaultMaxMemory is the part of a multipart upload kept in memory.
	DefaultMaxMemory = 8 << 20

	complexityLimit = 200
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Resolver *graph.Resolver
	Logger   *logrus.Logger
	Version  string

	// MediaRoot is served below MediaURL when set. It is only used with the
	// filesystem storage backend.
	MediaRoot string
	MediaURL  string

	MaxUploadSize int64
}

// Server is the HTTP surface of larder.
type Server struct {
	engine  *gin.Engine
	graphql *handler.Server
	metrics *Metrics
	log     *logrus.Entry
}

// New builds the router and the GraphQL handler.
func New(opts Options) *Server {
	log := opts.Logger.WithField("component", "server")
	if !opts.Logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = config.DefaultMaxUploadSize
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		engine:  gin.New(),
		metrics: NewMetrics(opts.Version),
		log:     log,
	}
	s.graphql = newGraphQLHandler(opts, s.metrics, log)

	r := s.engine
	r.Use(RecoveryMiddleware(log))
	r.Use(LoggingMiddleware(log))
	r.Use(s.metrics.Middleware())

	playgroundHandler := playground.Handler("Larder GraphQL", "/graphql")
	r.POST("/graphql", gin.WrapH(s.graphql))
	r.OPTIONS("/graphql", gin.WrapH(s.graphql))
	r.GET("/graphql", func(c *gin.Context) {
		if c.Query("query") != "" {
			s.graphql.ServeHTTP(c.Writer, c.Request)
			return
		}
		playgroundHandler.ServeHTTP(c.Writer, c.Request)
	})

	if opts.MediaRoot != "" {
		mediaURL := opts.MediaURL
		if mediaURL == "" {
			mediaURL = "/media"
		}
		r.Static(mediaURL, opts.MediaRoot)
	}

	checks := map[string]HealthCheck{}
	if opts.Resolver != nil && opts.Resolver.Store != nil {
		checks["database"] = opts.Resolver.Store.Ping
	}
	r.GET("/healthz", healthHandler(opts.Version, checks))
	r.GET("/metrics", s.metrics.Handler())

	return s
}

func newGraphQLHandler(opts Options, metrics *Metrics, log *logrus.Entry) *handler.Server {
	es := graph.NewExecutableSchema(graph.Config{Resolvers: opts.Resolver})
	srv := handler.New(es)

	srv.AddTransport(transport.Options{})
	srv.AddTransport(transport.GET{})
	srv.AddTransport(transport.POST{})
	srv.AddTransport(transport.MultipartForm{
		MaxUploadSize: opts.MaxUploadSize,
		MaxMemory:     DefaultMaxMemory,
	})

	srv.SetQueryCache(lru.New[*ast.QueryDocument](1000))
	srv.Use(extension.Introspection{})
	srv.Use(extension.AutomaticPersistedQuery{Cache: lru.New[string](100)})
	srv.Use(extension.FixedComplexityLimit(complexityLimit))

	srv.AroundResponses(metrics.AroundResponses)
	srv.SetErrorPresenter(graph.ErrorPresenter(log))
	srv.SetRecoverFunc(graph.RecoverFunc(log))
	return srv
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("starting HTTP server")
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.log.Info("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.log.Info("server stopped")
		return nil
	}
}
