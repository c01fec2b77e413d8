package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// RunID identifies a single pipeline invocation (fit or apply).
	RunID ID
	// ArtifactVersion ties a model bundle to the reference statistics
	// produced by the same training run. The two artifacts are a single
	// logical unit; mixing versions is a correctness bug.
	ArtifactVersion ID
)

func (id RunID) String() string           { return ID(id).String() }
func (v ArtifactVersion) String() string  { return ID(v).String() }
func (v ArtifactVersion) IsEmpty() bool   { return v == "" }
func (id RunID) IsEmpty() bool            { return id == "" }
func NewRunID() RunID                     { return RunID(NewID()) }
func NewArtifactVersion() ArtifactVersion { return ArtifactVersion(NewID()) }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}
