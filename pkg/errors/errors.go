// Package errors provides the error taxonomy and warning system used across
// stagekit. All fatal errors are structured types carrying a stack trace;
// warnings are routed through a configurable global handler.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to the standard logger.
		log.Printf("stagekit-Warning: %v\n", w)
	}
	// zerolog warn hook, installed lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the warning handler for the whole library.
// Pass a no-op function to silence warnings.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the zerolog sink when one is installed,
// falling back to the plain handler otherwise.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// DataConversionWarning signals that column data was implicitly converted,
// e.g. string columns coerced to categorical before training.
type DataConversionWarning struct {
	Column   string
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("column '%s' converted from %s to %s. Reason: %s", w.Column, w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject adds the structured warning fields to a zerolog event.
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("column", w.Column).
		Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning creates a new DataConversionWarning.
func NewDataConversionWarning(column, from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{Column: column, FromType: from, ToType: to, Reason: reason}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// NotFittedError is returned when Transform or Predict is called on a stage
// that carries no trained artifact.
type NotFittedError struct {
	StageName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("stagekit: %s: this stage holds no trained artifact. Call Fit() or Load() before using %s()", e.StageName, e.Method)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("stage_name", e.StageName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(stageName, method string) error {
	err := &NotFittedError{StageName: stageName, Method: method}
	return errors.WithStack(err)
}

// ValidationError is a configuration-time failure: a stage parameter was set
// to a value the stage cannot operate with. Fatal, never retried.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("stagekit: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// UnsupportedCategoryError is returned when prediction or output-schema
// derivation is requested for a model category that is declared but not
// implemented (autoencoder, dimensionality reduction, word embedding,
// unknown). Fatal: these must never degrade into silent no-ops.
type UnsupportedCategoryError struct {
	Category string
	Op       string
}

func (e *UnsupportedCategoryError) Error() string {
	return fmt.Sprintf("stagekit: %s: unsupported model category '%s'", e.Op, e.Category)
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *UnsupportedCategoryError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("category", e.Category).
		Str("operation", e.Op).
		Str("type", "UnsupportedCategoryError")
}

// NewUnsupportedCategoryError creates an UnsupportedCategoryError with a
// stack trace attached.
func NewUnsupportedCategoryError(op, category string) error {
	err := &UnsupportedCategoryError{Category: category, Op: op}
	return errors.WithStack(err)
}

// ReconstructionError is returned when a persisted stage cannot be rebuilt:
// no builder is registered for the persisted class identity, or the payload
// or metadata fails to deserialize.
type ReconstructionError struct {
	Class  string
	Reason string
	Err    error
}

func (e *ReconstructionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stagekit: cannot reconstruct stage '%s': %s: %v", e.Class, e.Reason, e.Err)
	}
	return fmt.Sprintf("stagekit: cannot reconstruct stage '%s': %s", e.Class, e.Reason)
}

func (e *ReconstructionError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds the structured error fields to a zerolog event.
func (e *ReconstructionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("class", e.Class).
		Str("reason", e.Reason).
		Str("type", "ReconstructionError")
}

// NewReconstructionError creates a ReconstructionError with a stack trace
// attached.
func NewReconstructionError(class, reason string, err error) error {
	recErr := &ReconstructionError{Class: class, Reason: reason, Err: err}
	return errors.WithStack(recErr)
}

// ValueError is returned when an argument value is malformed or out of range.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("stagekit: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be cast to target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error values
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an empty frame is passed where rows are required.
	ErrEmptyData = New("empty data")

	// ErrNoContext is returned when no execution context has been installed.
	ErrNoContext = New("no execution context: call engine.SetContext before fitting or reloading a trainer stage")
)
