// Package errors provides structured errors and warnings for gaussrank.
// It wraps cockroachdb/errors so every constructor attaches a stack trace,
// and every structured type can be marshalled into a zerolog event.
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
		log.Printf("gaussrank-warning: %v\n", w)
	}
	// set by pkg/log to avoid an import cycle
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the library-wide warning handler.
//
// Example:
//
//	errors.SetWarningHandler(func(w error) {
//	    // drop warnings
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. When set it
// takes precedence over the handler installed by SetWarningHandler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the zerolog sink if present, otherwise
// through the plain handler.
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
//	Warnings
//
// ===========================================================================

// DegenerateFeatureWarning is emitted when a feature has a single distinct
// value at fit time. The feature is mapped to quantile 0 (Gaussian score 0)
// and every inverse-transformed value collapses to that single value.
type DegenerateFeatureWarning struct {
	Feature int
	Value   float64
}

func (w *DegenerateFeatureWarning) Error() string {
	return fmt.Sprintf("feature %d has a single distinct value (%g); it is mapped to quantile 0", w.Feature, w.Value)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *DegenerateFeatureWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("feature", w.Feature).
		Float64("value", w.Value).
		Str("type", "DegenerateFeatureWarning")
}

// NewDegenerateFeatureWarning creates a new DegenerateFeatureWarning.
func NewDegenerateFeatureWarning(feature int, value float64) *DegenerateFeatureWarning {
	return &DegenerateFeatureWarning{Feature: feature, Value: value}
}

// InterpolationFallbackWarning is emitted when the requested interpolation
// rule cannot be fitted to a feature (usually too few distinct values) and
// piecewise-linear interpolation is used instead.
type InterpolationFallbackWarning struct {
	Feature   int
	Requested string
	Used      string
	Reason    string
}

func (w *InterpolationFallbackWarning) Error() string {
	return fmt.Sprintf("feature %d: interpolation %q replaced by %q: %s", w.Feature, w.Requested, w.Used, w.Reason)
}

// MarshalZerologObject adds the warning fields to a zerolog event.
func (w *InterpolationFallbackWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("feature", w.Feature).
		Str("requested", w.Requested).
		Str("used", w.Used).
		Str("reason", w.Reason).
		Str("type", "InterpolationFallbackWarning")
}

// NewInterpolationFallbackWarning creates a new InterpolationFallbackWarning.
func NewInterpolationFallbackWarning(feature int, requested, used, reason string) *InterpolationFallbackWarning {
	return &InterpolationFallbackWarning{Feature: feature, Requested: requested, Used: used, Reason: reason}
}

// ===========================================================================
//
//	Structured errors
//
// ===========================================================================

// NotFittedError is returned when Transform or InverseTransform is called
// on a model that has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("gaussrank: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError reports an input whose shape differs from the expected one.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("gaussrank: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValidationError reports an input or parameter that failed validation.
// Row and Col locate the offending element of a matrix input; both are -1
// when the error concerns a scalar parameter.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
	Row       int
	Col       int
}

func (e *ValidationError) Error() string {
	if e.Row >= 0 && e.Col >= 0 {
		return fmt.Sprintf("gaussrank: validation failed for parameter '%s' at (%d, %d): %s (got: %v)", e.ParamName, e.Row, e.Col, e.Reason, e.Value)
	}
	return fmt.Sprintf("gaussrank: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds the error fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
	if e.Row >= 0 && e.Col >= 0 {
		event.Int("row", e.Row).Int("col", e.Col)
	}
}

// NewValidationError creates a ValidationError for a scalar parameter.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value, Row: -1, Col: -1}
	return errors.WithStack(err)
}

// NewElementValidationError creates a ValidationError for one element of
// a matrix input.
func NewElementValidationError(param, reason string, value interface{}, row, col int) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value, Row: row, Col: col}
	return errors.WithStack(err)
}

// ValueError reports an inappropriate argument value.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("gaussrank: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError is a general model failure wrapping an optional cause.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gaussrank: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("gaussrank: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a ModelError with a stack trace.
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap annotates err with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf annotates err with a formatted message.
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

// Mark makes Is(err, reference) report true while keeping err's own
// chain reachable with As.
func Mark(err error, reference error) error {
	return errors.Mark(err, reference)
}

// WithStack attaches a stack trace to err.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData is returned when an input has no rows or no columns.
	ErrEmptyData = New("empty data")

	// ErrRaggedRows is returned when row slices have different lengths.
	ErrRaggedRows = New("ragged rows")
)
