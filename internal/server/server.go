// Package server exposes the catalog over HTTP.
//
// It serves a JSON API backed by the registry's current snapshot, a small
// browse page and a websocket that tells connected pages when the catalog
// has been rebuilt.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/logging"
	"github.com/conneroisu/tplcat/internal/registry"
)

// Server serves the catalog held by a registry
type Server struct {
	config   *config.Config
	registry *registry.CatalogRegistry
	logger   logging.Logger

	clients      map[*websocket.Conn]*Client
	clientsMutex sync.RWMutex
	register     chan *Client
	unregister   chan *Client
	broadcast    chan []byte
	hubDone      chan struct{}

	httpServer   *http.Server
	listener     net.Listener
	serverMutex  sync.RWMutex
	backgroundMu sync.Mutex
	background   bool
	shutdownOnce sync.Once
}

// New creates a server for the catalog in reg
func New(cfg *config.Config, reg *registry.CatalogRegistry, logger logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if reg == nil {
		reg = registry.NewCatalogRegistry(nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Server{
		config:     cfg,
		registry:   reg,
		logger:     logger.WithComponent("server"),
		clients:    make(map[*websocket.Conn]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
		hubDone:    make(chan struct{}),
	}
}

// Handler returns the router with every route and middleware attached
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors(s.config.Server.AllowedOrigins))

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Get("/", s.handleIndex)

	r.Route("/api", func(r chi.Router) {
		r.Get("/templates", s.handleTemplates)
		r.Get("/templates/{id}", s.handleTemplate)
		r.Get("/featured", s.handleFeatured)
		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{slug}", s.handleCategory)
		r.Get("/stats", s.handleStats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed")
	})

	return r
}

// Listen binds the configured address and returns the URL the catalog is
// served on. Start calls it when it has not been called yet.
func (s *Server) Listen() (string, error) {
	s.serverMutex.Lock()
	defer s.serverMutex.Unlock()

	if s.listener == nil {
		addr := s.config.Server.Address()
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return "", fmt.Errorf("listen on %s: %w", addr, err)
		}
		s.listener = listener
	}
	return "http://" + s.listener.Addr().String(), nil
}

// Start runs the websocket hub and serves HTTP until ctx is cancelled or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	url, err := s.Listen()
	if err != nil {
		return err
	}
	s.startBackground(ctx)

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	server, listener := s.httpServer, s.listener
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Catalog server listening", "url", url)

	err = server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// startBackground starts the websocket hub and the registry relay once.
func (s *Server) startBackground(ctx context.Context) {
	s.backgroundMu.Lock()
	defer s.backgroundMu.Unlock()
	if s.background {
		return
	}
	s.background = true

	events := s.registry.Watch()
	go s.runWebSocketHub(ctx)
	go s.relayCatalogEvents(ctx, events)
}

// Shutdown closes every websocket client and stops the HTTP server. It is
// safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		// each handler closes its own connection once its send channel closes
		s.clientsMutex.Lock()
		for _, client := range s.clients {
			client.close()
		}
		s.clients = make(map[*websocket.Conn]*Client)
		s.clientsMutex.Unlock()

		s.serverMutex.RLock()
		server, listener := s.httpServer, s.listener
		s.serverMutex.RUnlock()

		switch {
		case server != nil:
			shutdownErr = server.Shutdown(ctx)
		case listener != nil:
			shutdownErr = listener.Close()
		}
	})

	return shutdownErr
}
