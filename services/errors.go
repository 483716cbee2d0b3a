package services

import (
	"errors"
	"fmt"
	"strings"

	"pg-backend/repository"
	"pg-backend/utils"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrRoomFull      = errors.New("room is full")
	ErrInvalidStatus = errors.New("invalid payment status")
	ErrInvalidMonth  = errors.New("invalid month")

	// ErrInconsistent reports stored occupancy that disagrees with guest
	// room pointers. Mutations refuse to continue from such a state.
	ErrInconsistent = errors.New("occupancy out of sync")

	ErrInvalidCredentials = errors.New("invalid credentials")
)

// FieldError is used to indicate an error with a specific input field.
type FieldError = utils.FieldError

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// notFound maps a store miss to ErrNotFound, naming what was looked up.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return err
}
