package shared

import (
	"errors"
	"net/http"

	"kpitrack/internal/domain/kpi"
	"kpitrack/internal/domain/notifications"
	"kpitrack/internal/domain/org"
)

// StatusForError maps domain sentinels onto HTTP status and error code.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, kpi.ErrNotFound), errors.Is(err, org.ErrNotFound), errors.Is(err, notifications.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, kpi.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, kpi.ErrDuplicateAssignment):
		return http.StatusConflict, "duplicate_assignment"
	case errors.Is(err, kpi.ErrAlreadyFinalized):
		return http.StatusConflict, "already_finalized"
	case errors.Is(err, kpi.ErrForeignKeyViolation):
		return http.StatusUnprocessableEntity, "missing_reference"
	}
	return http.StatusInternalServerError, "internal_error"
}
