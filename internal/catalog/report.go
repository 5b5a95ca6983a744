package catalog

import (
	"github.com/conneroisu/tplcat/internal/errors"
)

// Report records what happened to every scanned entry during aggregation.
type Report struct {
	// Scanned is the number of entries handed to Aggregate
	Scanned int
	// Included is the number of templates that made it into the catalog
	Included int

	issues *errors.ErrorCollector
}

func newReport(scanned int) *Report {
	return &Report{
		Scanned: scanned,
		issues:  errors.NewErrorCollector(),
	}
}

func (r *Report) add(err *errors.CatalogError, severity errors.ErrorSeverity) {
	r.issues.Add(err, severity)
}

// Issues returns every recorded issue in the order it was found.
func (r *Report) Issues() []errors.Issue {
	return r.issues.Issues()
}

// Warnings returns the issues that did not keep a template out of the
// catalog on their own (missing manifests, tolerated mismatches and
// duplicates).
func (r *Report) Warnings() []errors.Issue {
	var out []errors.Issue
	for _, issue := range r.issues.Issues() {
		if issue.Severity == errors.ErrorSeverityWarning {
			out = append(out, issue)
		}
	}
	return out
}

// Failures returns the issues at error severity or above.
func (r *Report) Failures() []errors.Issue {
	var out []errors.Issue
	for _, issue := range r.issues.Issues() {
		if issue.Severity >= errors.ErrorSeverityError {
			out = append(out, issue)
		}
	}
	return out
}

// ByCode returns the issues carrying code.
func (r *Report) ByCode(code string) []errors.Issue {
	return r.issues.ByCode(code)
}

// Missing is the number of template directories without a manifest.
func (r *Report) Missing() int {
	return len(r.issues.ByCode(errors.CodeManifestMissing))
}

// Fatal reports whether aggregation was aborted.
func (r *Report) Fatal() bool {
	return r.issues.Count(errors.ErrorSeverityFatal) > 0
}
