package db

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-importer/internal/types"
)

// Import sources.
const (
	SourceUpload  = "upload"
	SourceProfile = "profile"
)

// ErrNotFound is returned when an import does not exist.
var ErrNotFound = errors.New("import not found")

// DefaultListLimit caps ListImports when no limit is given.
const DefaultListLimit = 50

// Import is one persisted extraction outcome.
type Import struct {
	ID             uuid.UUID           `json:"id"`
	UserID         *uuid.UUID          `json:"user_id,omitempty"`
	Source         string              `json:"source"`
	Reference      string              `json:"reference"` // filename or profile URL
	Route          string              `json:"route,omitempty"`
	Capability     string              `json:"capability,omitempty"`
	Classification string              `json:"classification,omitempty"`
	Fallback       bool                `json:"fallback"`
	Success        bool                `json:"success"`
	Error          string              `json:"error,omitempty"`
	Record         *types.ResumeRecord `json:"record"`
	CreatedAt      time.Time           `json:"created_at"`
}

// prepare fills the ID, timestamp and record before an insert.
func (i *Import) prepare() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.CreatedAt.IsZero() {
		i.CreatedAt = time.Now().UTC()
	}
	if i.Record == nil {
		i.Record = types.EmptyResumeRecord()
	}
}

func listLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return DefaultListLimit
	}
	return limit
}
