package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/logging"
	"github.com/conneroisu/tplcat/internal/watcher"
)

const defaultDebounce = 300 * time.Millisecond

// WatchService rebuilds the catalog whenever the template tree changes
type WatchService struct {
	config   *config.Config
	logger   logging.Logger
	builder  *BuildService
	debounce time.Duration
}

// NewWatchService creates a new watch service
func NewWatchService(cfg *config.Config, logger logging.Logger) *WatchService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &WatchService{
		config:   cfg,
		logger:   logger.WithComponent("watch"),
		builder:  NewBuildService(cfg, logger),
		debounce: defaultDebounce,
	}
}

// Watch blocks until ctx is done, running one build per batch of changes.
// onBuild, when set, receives the outcome of every rebuild.
func (s *WatchService) Watch(ctx context.Context, onBuild func(*BuildResult, error)) error {
	fw, err := watcher.NewFileWatcher(s.debounce, s.logger)
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Stop()

	fw.AddFilter(watcher.NoEditorTempFilter)
	fw.AddFilter(watcher.CatalogFilter(s.config.Catalog.Root, s.config.Catalog.Manifest, s.config.Catalog.HiddenPrefix))
	fw.AddFilter(notPath(s.config.Catalog.Output))

	if err := fw.AddRecursive(s.config.Catalog.Root); err != nil {
		return fmt.Errorf("watch %s: %w", s.config.Catalog.Root, err)
	}

	fw.AddHandler(func(ctx context.Context, events []watcher.ChangeEvent) error {
		s.logger.Info(ctx, "Templates changed, rebuilding", "changes", len(events), "first", events[0].Path)

		result, err := s.builder.Build(ctx, BuildOptions{})
		if onBuild != nil {
			onBuild(result, err)
		}
		return err
	})

	if err := fw.Start(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "Watching templates", "root", s.config.Catalog.Root, "debounce", s.debounce)

	<-ctx.Done()
	return nil
}

// notPath rejects changes to the catalog document itself, which may live
// below the root.
func notPath(path string) watcher.FileFilter {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return func(p string) bool {
		candidate, err := filepath.Abs(p)
		if err != nil {
			return true
		}
		return candidate != abs
	}
}
