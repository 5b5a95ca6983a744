package services

import (
	"context"
	"fmt"
	"time"

	"github.com/conneroisu/tplcat/internal/catalog"
	"github.com/conneroisu/tplcat/internal/config"
	"github.com/conneroisu/tplcat/internal/errors"
	"github.com/conneroisu/tplcat/internal/logging"
	"github.com/conneroisu/tplcat/internal/scanner"
	"github.com/conneroisu/tplcat/internal/types"
)

// BuildService handles catalog building business logic
type BuildService struct {
	config *config.Config
	logger logging.Logger
	now    func() time.Time
}

// NewBuildService creates a new build service
func NewBuildService(cfg *config.Config, logger logging.Logger) *BuildService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &BuildService{
		config: cfg,
		logger: logger.WithComponent("build"),
		now:    time.Now,
	}
}

// BuildOptions contains options for the build process
type BuildOptions struct {
	// DryRun aggregates the catalog without writing it
	DryRun bool
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Catalog  *types.Catalog
	Report   *catalog.Report
	Output   string
	Written  bool
	Duration time.Duration
}

// Build scans the configured root, aggregates the results and writes the
// catalog document. A fatal error leaves any previous document untouched.
func (s *BuildService) Build(ctx context.Context, opts BuildOptions) (*BuildResult, error) {
	op := logging.StartOperation(s.logger, "build")
	result := &BuildResult{Output: s.config.Catalog.Output}

	s.logger.Info(ctx, "Scanning templates directory", "root", s.config.Catalog.Root)

	sc := scanner.New(s.config.Catalog.Root, scanner.Options{
		Manifest:     s.config.Catalog.Manifest,
		HiddenPrefix: s.config.Catalog.HiddenPrefix,
		Logger:       s.logger,
	})

	results, err := sc.Scan(ctx)
	if err != nil {
		result.Duration = op.EndWithError(ctx, err)
		return result, fmt.Errorf("scan %s: %w", s.config.Catalog.Root, err)
	}

	if err := ctx.Err(); err != nil {
		result.Duration = op.EndWithError(ctx, err)
		return result, err
	}

	doc, report, err := catalog.Aggregate(results, catalog.Options{
		Duplicates:       s.config.Build.Duplicates,
		CategoryMismatch: s.config.Build.CategoryMismatch,
		Now:              s.now,
	})
	result.Report = report
	s.logIssues(ctx, report)
	if err != nil {
		result.Duration = op.EndWithError(ctx, err)
		return result, err
	}
	result.Catalog = doc

	if !opts.DryRun {
		if err := catalog.Write(s.config.Catalog.Output, doc); err != nil {
			result.Duration = op.EndWithError(ctx, err)
			return result, err
		}
		result.Written = true
		s.logger.Info(ctx, "Catalog written", "output", s.config.Catalog.Output)
	}

	doc.Categories.Each(func(label string, c types.Category) bool {
		s.logger.Debug(ctx, "Category summary", "category", label, "count", c.Count)
		return true
	})

	result.Duration = op.End(ctx,
		"templates", doc.TotalTemplates,
		"categories", doc.Categories.Len(),
		"skipped", len(report.Failures()),
		"missing", report.Missing(),
		"dry_run", opts.DryRun)

	return result, nil
}

// logIssues reports the problems found during aggregation itself; the
// scanner has already logged per-entry failures.
func (s *BuildService) logIssues(ctx context.Context, report *catalog.Report) {
	for _, issue := range report.Issues() {
		switch issue.Err.Code {
		case errors.CodeCategoryMismatch, errors.CodeDuplicateID:
		default:
			continue
		}
		if issue.Severity == errors.ErrorSeverityWarning {
			s.logger.Warn(ctx, issue.Err, "Catalog warning", "code", issue.Err.Code, "path", issue.Err.Path)
		} else {
			s.logger.Error(ctx, issue.Err, "Catalog error", "code", issue.Err.Code, "path", issue.Err.Path)
		}
	}
}
