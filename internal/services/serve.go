package services

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/logging"
	"github.com/conneroisu/tplcat/internal/query"
	"github.com/conneroisu/tplcat/internal/registry"
	"github.com/conneroisu/tplcat/internal/server"
)

const shutdownTimeout = 5 * time.Second

// ServeService builds the catalog and serves it over HTTP
type ServeService struct {
	config  *config.Config
	logger  logging.Logger
	builder *BuildService
	watcher *WatchService
}

// NewServeService creates a new serve service
func NewServeService(cfg *config.Config, logger logging.Logger) *ServeService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ServeService{
		config:  cfg,
		logger:  logger.WithComponent("serve"),
		builder: NewBuildService(cfg, logger),
		watcher: NewWatchService(cfg, logger),
	}
}

// ServeOptions contains options for the serve process
type ServeOptions struct {
	// Watch rebuilds and swaps the served catalog when templates change
	Watch bool
	// Ready is called with the server URL once the port is bound
	Ready func(url string)
}

// ServeResult contains the result of a serve operation
type ServeResult struct {
	ServerURL string
	// Generation is the number of catalogs served before shutdown
	Generation int
}

// Serve builds the catalog, then serves it until ctx is cancelled or the
// process receives SIGINT or SIGTERM.
func (s *ServeService) Serve(ctx context.Context, opts ServeOptions) (*ServeResult, error) {
	result := &ServeResult{}

	engine, err := s.initialCatalog(ctx)
	if err != nil {
		return result, err
	}
	reg := registry.NewCatalogRegistry(engine)
	srv := server.New(s.config, reg, s.logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	url, err := srv.Listen()
	if err != nil {
		return result, err
	}
	result.ServerURL = url
	if opts.Ready != nil {
		opts.Ready(url)
	}

	if opts.Watch {
		go func() {
			err := s.watcher.Watch(ctx, func(built *BuildResult, err error) {
				if err != nil {
					reg.Fail(err)
					return
				}
				reg.Swap(query.New(built.Catalog))
			})
			if err != nil {
				s.logger.Error(ctx, err, "File watcher stopped")
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, err, "Error during server shutdown")
		}
	}()

	err = srv.Start(ctx)
	result.Generation = reg.Generation()
	return result, err
}

// initialCatalog builds the catalog. When the build fails it falls back to
// the last catalog written, so a broken manifest does not stop the server.
func (s *ServeService) initialCatalog(ctx context.Context) (*query.Engine, error) {
	built, err := s.builder.Build(ctx, BuildOptions{})
	if err == nil {
		return query.New(built.Catalog), nil
	}

	s.logger.Warn(ctx, err, "Build failed, serving the previous catalog", "output", s.config.Catalog.Output)
	engine, loadErr := query.Load(s.config.Catalog.Output)
	if loadErr != nil {
		return nil, fmt.Errorf("build failed and no previous catalog is available: %w", err)
	}
	return engine, nil
}
