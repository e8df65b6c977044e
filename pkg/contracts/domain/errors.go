package domain

import (
	"errors"
	"fmt"
)

// ReconcileErrorKind classifies run-level failures
type ReconcileErrorKind string

const (
	// ErrKindInvalidArchive means an upload could not be opened as a zip archive
	ErrKindInvalidArchive ReconcileErrorKind = "InvalidArchive"
	// ErrKindNoMatchingSources means no usable dated source was found for a required input
	ErrKindNoMatchingSources ReconcileErrorKind = "NoMatchingSources"
	// ErrKindInsufficientPeriods means fewer than two Takas snapshots were available
	ErrKindInsufficientPeriods ReconcileErrorKind = "InsufficientPeriods"
	// ErrKindMissingColumn means a required column is absent from a source
	ErrKindMissingColumn ReconcileErrorKind = "MissingColumn"
	// ErrKindUnreadableSource means a located file could not be decoded as a table
	ErrKindUnreadableSource ReconcileErrorKind = "UnreadableSource"
	// ErrKindNoAlignedPeriods means no computed period could be paired with an AKD source
	ErrKindNoAlignedPeriods ReconcileErrorKind = "NoAlignedPeriods"
)

// ReconcileError is a run-aborting failure reported to the caller
type ReconcileError struct {
	Kind    ReconcileErrorKind `json:"kind"`
	Source  string             `json:"source,omitempty"`
	Column  string             `json:"column,omitempty"`
	Message string             `json:"message"`
	Cause   error              `json:"-"`
}

func (e *ReconcileError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ReconcileError) Unwrap() error {
	return e.Cause
}

// Is matches any ReconcileError of the same kind, so sentinel comparisons work
func (e *ReconcileError) Is(target error) bool {
	t, ok := target.(*ReconcileError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Source == "" && t.Column == "" && t.Message == ""
}

// Sentinels for errors.Is checks
var (
	ErrInvalidArchive      = &ReconcileError{Kind: ErrKindInvalidArchive}
	ErrNoMatchingSources   = &ReconcileError{Kind: ErrKindNoMatchingSources}
	ErrInsufficientPeriods = &ReconcileError{Kind: ErrKindInsufficientPeriods}
	ErrMissingColumn       = &ReconcileError{Kind: ErrKindMissingColumn}
	ErrUnreadableSource    = &ReconcileError{Kind: ErrKindUnreadableSource}
	ErrNoAlignedPeriods    = &ReconcileError{Kind: ErrKindNoAlignedPeriods}
)

// NewInvalidArchiveError reports an upload that is not a readable archive
func NewInvalidArchiveError(source string, cause error) *ReconcileError {
	return &ReconcileError{
		Kind:    ErrKindInvalidArchive,
		Source:  source,
		Message: fmt.Sprintf("%s is not a valid zip archive", source),
		Cause:   cause,
	}
}

// NewNoMatchingSourcesError reports an input that yielded no dated sources
func NewNoMatchingSourcesError(kind SourceKind) *ReconcileError {
	return &ReconcileError{
		Kind:    ErrKindNoMatchingSources,
		Source:  string(kind),
		Message: fmt.Sprintf("no usable %s files found; check the folder and file naming", kind),
	}
}

// NewInsufficientPeriodsError reports fewer than two Takas snapshots
func NewInsufficientPeriodsError(found int) *ReconcileError {
	return &ReconcileError{
		Kind:    ErrKindInsufficientPeriods,
		Source:  string(SourceKindTakas),
		Message: fmt.Sprintf("at least 2 ordered takas files are required, found %d", found),
	}
}

// NewMissingColumnError reports a required column absent from a source
func NewMissingColumnError(source, column string) *ReconcileError {
	return &ReconcileError{
		Kind:    ErrKindMissingColumn,
		Source:  source,
		Column:  column,
		Message: fmt.Sprintf("column %q not found in %s", column, source),
	}
}

// NewUnreadableSourceError reports a located file that could not be decoded
func NewUnreadableSourceError(source string, cause error) *ReconcileError {
	return &ReconcileError{
		Kind:    ErrKindUnreadableSource,
		Source:  source,
		Message: fmt.Sprintf("could not read %s", source),
		Cause:   cause,
	}
}

// NewNoAlignedPeriodsError reports that no period could be paired with an AKD source
func NewNoAlignedPeriodsError(periods, akdSources int) *ReconcileError {
	return &ReconcileError{
		Kind:    ErrKindNoAlignedPeriods,
		Source:  string(SourceKindAKD),
		Message: fmt.Sprintf("none of %d periods matched any of %d akd files", periods, akdSources),
	}
}

// AsReconcileError extracts a ReconcileError from an error chain
func AsReconcileError(err error) (*ReconcileError, bool) {
	var rErr *ReconcileError
	if errors.As(err, &rErr) {
		return rErr, true
	}
	return nil, false
}
