package domain

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures of the estimator pipeline.
type ErrorCode string

const (
	CodeDataLoad       ErrorCode = "DATA_LOAD_FAILED"
	CodeModelLoad      ErrorCode = "MODEL_LOAD_FAILED"
	CodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
	CodePrediction     ErrorCode = "PREDICTION_FAILED"
)

// Sentinels for errors.Is. Any *Error with the same code matches.
var (
	ErrDataLoad       = &Error{Code: CodeDataLoad}
	ErrModelLoad      = &Error{Code: CodeModelLoad}
	ErrSchemaMismatch = &Error{Code: CodeSchemaMismatch}
	ErrPrediction     = &Error{Code: CodePrediction}
)

// Error is a coded error carrying the failing operation and its cause.
type Error struct {
	Code ErrorCode
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Op)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on code only, so wrapped sentinels compare equal regardless of Op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDataLoadError reports a missing or corrupt reference dataset.
func NewDataLoadError(op string, err error) *Error {
	return &Error{Code: CodeDataLoad, Op: op, Err: err}
}

// NewModelLoadError reports a missing, corrupt or incompatible model artifact.
func NewModelLoadError(op string, err error) *Error {
	return &Error{Code: CodeModelLoad, Op: op, Err: err}
}

// NewSchemaMismatchError reports a feature set or kind disagreement.
func NewSchemaMismatchError(op string, err error) *Error {
	return &Error{Code: CodeSchemaMismatch, Op: op, Err: err}
}

// NewPredictionError reports a failure scoped to a single prediction request.
func NewPredictionError(op string, err error) *Error {
	return &Error{Code: CodePrediction, Op: op, Err: err}
}

// IsLoadError reports whether err happened while loading process-wide resources.
// Those failures are fatal for the session; a schema mismatch only counts when
// it was not raised by a prediction.
func IsLoadError(err error) bool {
	if errors.Is(err, ErrDataLoad) || errors.Is(err, ErrModelLoad) {
		return true
	}
	return errors.Is(err, ErrSchemaMismatch) && !errors.Is(err, ErrPrediction)
}

// CodeOf returns the code of the outermost *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
