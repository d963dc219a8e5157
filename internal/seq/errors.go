package seq

import (
	"errors"
	"fmt"

	"github.com/seqforge/seqforge/internal/event"
)

// BuildError represents a structural error detected while assembling or
// reading blocks. Structural errors fail fast and never leave a half-written
// block row; timing diagnostics, by contrast, are collected by CheckTiming
// and never raised.
type BuildError struct {
	// Code identifies the error category.
	Code BuildErrorCode

	// Message is a human-readable description.
	Message string

	// BlockIndex identifies the affected block, when known (1-based).
	BlockIndex int

	// Channel identifies the gradient axis for duplicate-axis and
	// cross-axis errors.
	Channel event.Channel
}

// BuildErrorCode categorizes structural errors.
type BuildErrorCode string

const (
	// ErrCodeDuplicateEvent indicates more than one event of a kind that
	// allows only one per block (second RF, second ADC, second gradient
	// on one axis, second explicit delay).
	ErrCodeDuplicateEvent BuildErrorCode = "DUPLICATE_EVENT"

	// ErrCodeTiming indicates an event whose timing is not aligned to
	// its governing raster.
	ErrCodeTiming BuildErrorCode = "TIMING"

	// ErrCodeIndexOutOfRange indicates a block index outside the table.
	ErrCodeIndexOutOfRange BuildErrorCode = "INDEX_OUT_OF_RANGE"

	// ErrCodeCrossAxisReuse indicates a gradient library entry referenced
	// from more than one axis, which whole-axis scaling cannot support.
	ErrCodeCrossAxisReuse BuildErrorCode = "CROSS_AXIS_REUSE"

	// ErrCodeUnsupportedEvent indicates an event type the assembler does
	// not recognize.
	ErrCodeUnsupportedEvent BuildErrorCode = "UNSUPPORTED_EVENT"
)

// Error implements the error interface.
func (e *BuildError) Error() string {
	if e.BlockIndex > 0 {
		return fmt.Sprintf("%s: %s (block=%d)", e.Code, e.Message, e.BlockIndex)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsDuplicateEventError reports whether err is a duplicate-event error.
// Uses errors.As to handle wrapped errors.
func IsDuplicateEventError(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == ErrCodeDuplicateEvent
}

// IsTimingError reports whether err is a raster-alignment error.
func IsTimingError(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == ErrCodeTiming
}

// IsIndexOutOfRangeError reports whether err is an out-of-range block index.
func IsIndexOutOfRangeError(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == ErrCodeIndexOutOfRange
}

// IsCrossAxisReuseError reports whether err is a cross-axis gradient reuse
// error.
func IsCrossAxisReuseError(err error) bool {
	var be *BuildError
	return errors.As(err, &be) && be.Code == ErrCodeCrossAxisReuse
}

func newDuplicateEventError(index int, what string) *BuildError {
	return &BuildError{
		Code:       ErrCodeDuplicateEvent,
		Message:    fmt.Sprintf("block accepts at most one %s", what),
		BlockIndex: index,
	}
}

func newTimingError(index int, format string, args ...any) *BuildError {
	return &BuildError{
		Code:       ErrCodeTiming,
		Message:    fmt.Sprintf(format, args...),
		BlockIndex: index,
	}
}

func newIndexError(index, size int) *BuildError {
	return &BuildError{
		Code:       ErrCodeIndexOutOfRange,
		Message:    fmt.Sprintf("block index %d outside table of %d blocks", index, size),
		BlockIndex: index,
	}
}
