package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/resume-importer/internal/db"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStoreDisabled is returned by import lookups when no database is configured.
var ErrStoreDisabled = errors.New("import storage is not configured")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validationErr *ErrValidation
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound), errors.Is(err, ErrStoreDisabled):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
