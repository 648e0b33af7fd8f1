package model

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/soil-temp-model/internal/domain"
)

// Encode writes the artifact as indented JSON. Floats are written in their
// shortest exact form, so Decode restores them bit for bit.
func Encode(w io.Writer, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// Decode reads an artifact written by Encode. A different format version or
// an inconsistent layout wraps domain.ErrIncompatibleArtifact.
func Decode(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w: %w", domain.ErrIncompatibleArtifact, err)
	}
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return &a, nil
}
