package service

import (
	"errors"
	"fmt"

	"stroketraining/internal/model"
	"stroketraining/internal/validate"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("document not found")
	ErrNoFiles       = errors.New("no files in batch")
	ErrBatchTooLarge = errors.New("too many files in batch")
)

// PermissionError means the actor's role forbids the requested operation.
// No partial work is attempted when it is returned.
type PermissionError struct {
	Role model.Role
	Op   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %q is not allowed to %s", e.Role, e.Op)
}

// InvalidTransitionError means a status change is not in the allowed-
// transition table. The stored record is unchanged.
type InvalidTransitionError struct {
	From model.Status
	To   model.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %q -> %q", e.From, e.To)
}

// ValidationError carries per-field violations found before any network call.
type ValidationError struct {
	Fields validate.FieldErrors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}
