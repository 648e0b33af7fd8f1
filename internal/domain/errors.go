package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Failure classes surfaced by the training and serving paths. Callers match
// them with errors.Is; every error returned by this module that belongs to one
// of these classes wraps the corresponding sentinel.
var (
	// ErrNotFound reports an unknown station, region set or artifact.
	ErrNotFound = errors.New("not found")
	// ErrAmbiguousStation reports a station ID that matches more than one row.
	ErrAmbiguousStation = errors.New("ambiguous station")
	// ErrInsufficientData reports too few rows surviving cleaning and lagging.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrTraining reports a degenerate or singular fit.
	ErrTraining = errors.New("training failed")
	// ErrIncompatibleArtifact reports an artifact whose format version or
	// layout this build cannot serve.
	ErrIncompatibleArtifact = errors.New("incompatible artifact")
	// ErrSchemaMismatch reports an inference record whose field names differ
	// from the artifact's feature schema.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrStorage reports an I/O failure reading observations or artifacts.
	ErrStorage = errors.New("storage error")
)

// SchemaMismatchError lists the field names that kept a record from matching
// a feature schema.
type SchemaMismatchError struct {
	Missing    []string
	Unexpected []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Unexpected, ", "))
	}
	return fmt.Sprintf("%s: %s", ErrSchemaMismatch, strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrSchemaMismatch) match.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
