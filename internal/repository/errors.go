// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios without
// inspecting driver-specific errors. For example, ErrConflict signals
// that an operation cannot proceed due to dependent records (deleting
// an event that already has issued tickets), while the *NotFound values
// map to HTTP 404 responses.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be performed
// because of conflicting state, such as deleting an event that still
// has issued tickets. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrUserNotFound is returned when no user matches the given email or id.
var ErrUserNotFound = errors.New("user not found")

// ErrEventNotFound is returned when no event matches the given id.
var ErrEventNotFound = errors.New("event not found")

// ErrTicketNotFound is returned when no ticket matches the given
// ticket number or id.
var ErrTicketNotFound = errors.New("ticket not found")
