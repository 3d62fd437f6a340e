package pipeline

import (
	"fmt"
	"maps"
	"sync"
)

type ErrorType string

const (
	ErrorTypeNetwork    ErrorType = "network_error"
	ErrorTypeParse      ErrorType = "parse_error"
	ErrorTypeConfig     ErrorType = "config_error"
	ErrorTypeValidation ErrorType = "validation_error"
	ErrorTypeRender     ErrorType = "render_error"
	ErrorTypeFileIO     ErrorType = "file_io_error"
)

// PipelineError carries the failure type, the operation that failed, and an
// immutable key/value context for logging. WithContext returns a copy, so a
// shared sentinel is never mutated.
type PipelineError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error

	context   map[string]any
	contextMu sync.RWMutex
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s failed in %s: %s (caused by: %v)", e.Type, e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s failed in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

func NewError(errType ErrorType, operation, message string, cause error) *PipelineError {
	return &PipelineError{
		Type:      errType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		context:   make(map[string]any),
	}
}

// ContextMap returns a copy of the error's context.
func (e *PipelineError) ContextMap() map[string]any {
	e.contextMu.RLock()
	defer e.contextMu.RUnlock()

	return maps.Clone(e.context)
}

func (e *PipelineError) GetContext(key string) any {
	e.contextMu.RLock()
	defer e.contextMu.RUnlock()

	return e.context[key]
}

func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	e.contextMu.RLock()
	cloned := maps.Clone(e.context)
	e.contextMu.RUnlock()

	if cloned == nil {
		cloned = make(map[string]any)
	}
	cloned[key] = value
	return &PipelineError{
		Type:      e.Type,
		Operation: e.Operation,
		Message:   e.Message,
		Cause:     e.Cause,
		context:   cloned,
	}
}

func NewNetworkError(operation, message string, cause error) *PipelineError {
	return NewError(ErrorTypeNetwork, operation, message, cause)
}

func NewParseError(operation, message string, cause error) *PipelineError {
	return NewError(ErrorTypeParse, operation, message, cause)
}

func NewValidationError(operation, message string, cause error) *PipelineError {
	return NewError(ErrorTypeValidation, operation, message, cause)
}

func NewRenderError(operation, message string, cause error) *PipelineError {
	return NewError(ErrorTypeRender, operation, message, cause)
}

func NewFileIOError(operation, message string, cause error) *PipelineError {
	return NewError(ErrorTypeFileIO, operation, message, cause)
}

var (
	ErrNoSources        = NewValidationError("source_validation", "no data sources configured", nil)
	ErrAllSourcesFailed = NewNetworkError("load_dataset", "all data sources failed", nil)
	ErrEmptyDataset     = NewValidationError("clean_dataset", "no records matched the configured locations", nil)
	ErrEmptySnapshot    = NewValidationError("summarize_snapshot", "latest snapshot is empty", nil)
)
