package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeMissing    ErrorType = "missing"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeDuplicate  ErrorType = "duplicate"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Error codes raised while discovering, aggregating and loading catalogs.
const (
	CodeRootUnreadable     = "ROOT_UNREADABLE"
	CodeCategoryUnreadable = "CATEGORY_UNREADABLE"
	CodeManifestMissing    = "MANIFEST_MISSING"
	CodeManifestMalformed  = "MANIFEST_MALFORMED"
	CodeManifestInvalid    = "MANIFEST_INVALID"
	CodeCategoryMismatch   = "CATEGORY_MISMATCH"
	CodeDuplicateID        = "DUPLICATE_ID"
	CodeOutputUnwritable   = "OUTPUT_UNWRITABLE"
	CodeCatalogUnreadable  = "CATALOG_UNREADABLE"
	CodeConfigInvalid      = "CONFIG_INVALID"
)

// CatalogError is a structured error type with context.
type CatalogError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	// Path is the file or directory the error refers to, if any
	Path        string
	Context     map[string]interface{}
	Recoverable bool
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}
	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)
	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *CatalogError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a CatalogError with the same type and code.
func (e *CatalogError) Is(target error) bool {
	var t *CatalogError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *CatalogError) WithContext(key string, value interface{}) *CatalogError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath records the file or directory the error refers to.
func (e *CatalogError) WithPath(path string) *CatalogError {
	e.Path = path

	return e
}

// NewIOError creates an I/O error. I/O errors are fatal.
func NewIOError(code, message string, cause error) *CatalogError {
	return &CatalogError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewMissingError reports an expected file that does not exist.
func NewMissingError(code, message string) *CatalogError {
	return &CatalogError{
		Type:        ErrorTypeMissing,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string, cause error) *CatalogError {
	return &CatalogError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewDuplicateError reports an id seen more than once. Whether the build
// survives it depends on the duplicate policy, so recoverable is explicit.
func NewDuplicateError(id, firstPath, path string, recoverable bool) *CatalogError {
	return (&CatalogError{
		Type:        ErrorTypeDuplicate,
		Code:        CodeDuplicateID,
		Message:     fmt.Sprintf("duplicate template id %q (first seen at %s)", id, firstPath),
		Path:        path,
		Recoverable: recoverable,
	}).WithContext("id", id).WithContext("first_path", firstPath)
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *CatalogError {
	return &CatalogError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *CatalogError {
	return &CatalogError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Wrap wraps err in a CatalogError, keeping the path and recoverability of
// an existing CatalogError cause.
func Wrap(err error, errType ErrorType, code, message string) *CatalogError {
	if err == nil {
		return nil
	}

	var ce *CatalogError
	if errors.As(err, &ce) {
		return &CatalogError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       ce,
			Path:        ce.Path,
			Context:     ce.Context,
			Recoverable: ce.Recoverable,
		}
	}

	return &CatalogError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeMissing,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Recoverable
	}

	return false
}

// HasCode reports whether err is, or wraps, a CatalogError with code.
func HasCode(err error, code string) bool {
	for err != nil {
		var ce *CatalogError
		if !errors.As(err, &ce) {
			return false
		}
		if ce.Code == code {
			return true
		}
		err = ce.Cause
	}

	return false
}
