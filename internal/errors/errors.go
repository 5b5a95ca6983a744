package errors

import (
	"sync"
	"time"
)

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
	ErrorSeverityFatal
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	case ErrorSeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Issue is one recorded problem with its severity
type Issue struct {
	Err       *CatalogError
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorCollector collects issues reported while building a catalog
type ErrorCollector struct {
	issues []Issue
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		issues: make([]Issue, 0),
	}
}

// Add records err at the given severity. Nil errors are ignored.
func (ec *ErrorCollector) Add(err *CatalogError, severity ErrorSeverity) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.issues = append(ec.issues, Issue{
		Err:       err,
		Severity:  severity,
		Timestamp: time.Now(),
	})
}

// Issues returns all collected issues in the order they were added
func (ec *ErrorCollector) Issues() []Issue {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]Issue, len(ec.issues))
	copy(result, ec.issues)
	return result
}

// ByCode returns the issues whose error carries code
func (ec *ErrorCollector) ByCode(code string) []Issue {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var out []Issue
	for _, issue := range ec.issues {
		if issue.Err.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

// Count returns the number of issues at or above severity
func (ec *ErrorCollector) Count(severity ErrorSeverity) int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	n := 0
	for _, issue := range ec.issues {
		if issue.Severity >= severity {
			n++
		}
	}
	return n
}

// HasErrors returns true if any issue is an error or worse
func (ec *ErrorCollector) HasErrors() bool {
	return ec.Count(ErrorSeverityError) > 0
}

// Len returns the total number of issues
func (ec *ErrorCollector) Len() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.issues)
}
