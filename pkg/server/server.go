// Package server assembles the MCP server and its transports. The HTTP mode
// mounts three surfaces on one listener: OAuth endpoints at the root, the
// legacy key-authenticated MCP endpoint at /v1/mcp, and the OAuth-protected
// MCP endpoint at the configured resource path (default /v2/mcp). Well-known
// discovery documents must live at the root, which is why everything shares
// one mux.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/eodhd/eodhd-mcp/pkg/config"
	"github.com/eodhd/eodhd-mcp/pkg/eodhd"
	"github.com/eodhd/eodhd-mcp/pkg/oauth"
	"github.com/eodhd/eodhd-mcp/pkg/tools"
)

const shutdownTimeout = 30 * time.Second

// Server owns the MCP server instance and everything needed to expose it.
type Server struct {
	cfg     config.Config
	logger  zerolog.Logger
	mcp     *mcpserver.MCPServer
	client  *eodhd.Client
	store   *oauth.Store
	version string
}

// New builds the MCP server with the full tool set registered.
func New(cfg config.Config, version string, logger zerolog.Logger) *Server {
	client := eodhd.NewClient(cfg.APIBase, cfg.APIKey, logger)

	m := mcpserver.NewMCPServer(
		"eodhd-datasets",
		version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)
	tools.RegisterAll(m, tools.Deps{
		Client: client,
		WSBase: cfg.WSBase,
		Logger: logger,
	})

	return &Server{
		cfg:     cfg,
		logger:  logger.With().Str("component", "server").Logger(),
		mcp:     m,
		client:  client,
		store:   oauth.NewStore(),
		version: version,
	}
}

// ServeStdio runs the MCP server over stdin/stdout until the client
// disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info().Msg("serving MCP over stdio")
	return mcpserver.ServeStdio(s.mcp)
}

// Handler builds the multi-mount HTTP surface.
func (s *Server) Handler() (http.Handler, error) {
	if s.cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for HTTP mode; run gen-secret to create one")
	}

	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Mcp-Session-Id"},
	}).Handler)

	authServer := oauth.NewServer(s.cfg, s.store, s.client, s.logger)
	authServer.Routes(r)
	r.Get("/", s.handleIndex)

	// Legacy mount: the caller's key travels in the query or a header and is
	// forwarded upstream via the request context.
	legacy := mcpserver.NewStreamableHTTPServer(s.mcp,
		mcpserver.WithStateLess(true),
		mcpserver.WithHTTPContextFunc(legacyKeyContext),
	)
	r.Mount("/v1/mcp", legacy)

	// OAuth mount: the middleware swaps the Bearer token for the user's own
	// EODHD key before the MCP handler runs.
	protected := mcpserver.NewStreamableHTTPServer(s.mcp,
		mcpserver.WithStateLess(true),
	)
	r.Route(s.cfg.ResourcePath, func(sub chi.Router) {
		sub.Use(oauth.Middleware(s.cfg, s.store, s.logger))
		sub.Handle("/", protected)
		sub.Handle("/*", protected)
	})

	return r, nil
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.HTTPAddr, s.cfg.HTTPPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", addr).
			Str("legacy_mount", "/v1/mcp").
			Str("oauth_mount", s.cfg.ResourcePath).
			Msg("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return errors.Wrap(err, "HTTP server failed")
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "graceful shutdown failed")
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"name":"eodhd-datasets","version":%q,"endpoints":{"legacy_mcp":"/v1/mcp","oauth_mcp":%q,"authorization":"/.well-known/oauth-authorization-server"}}`+"\n",
		s.version, s.cfg.ResourcePath)
}

// legacyKeyContext pulls an API key from the query string or headers on the
// /v1/mcp mount and stashes it for the upstream client. Accepted forms:
// ?api_token=..., ?apikey=..., X-API-Key header, or a Bearer value that looks
// like a raw EODHD key rather than a JWT.
func legacyKeyContext(ctx context.Context, r *http.Request) context.Context {
	if key := r.URL.Query().Get("api_token"); key != "" {
		return eodhd.WithAPIToken(ctx, key)
	}
	if key := r.URL.Query().Get("apikey"); key != "" {
		return eodhd.WithAPIToken(ctx, key)
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return eodhd.WithAPIToken(ctx, key)
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		key := strings.TrimSpace(auth[len("bearer "):])
		// JWTs belong to the OAuth mount; dots beyond the first segment would
		// also appear in EODHD keys, so only exclude the three-part JWT shape.
		if key != "" && strings.Count(key, ".") != 2 {
			return eodhd.WithAPIToken(ctx, key)
		}
	}
	return ctx
}
