// Package apperrors defines the error taxonomy shared by all request
// handlers. Storage-layer errors are translated into these at the
// transaction boundary; nothing below that boundary leaks driver errors
// to responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

var (
	// ErrInvalidCredentials is deliberately opaque: it never reveals
	// whether the username or the password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrForbidden   = errors.New("you do not have permission to do that")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflicts with an existing record")
	ErrRateLimited = errors.New("too many requests, slow down")

	// ErrSlugExhausted is returned when slug disambiguation gives up
	// after its bounded number of retries.
	ErrSlugExhausted = errors.New("could not generate a unique slug")
)

// ValidationError carries a user-facing message about malformed input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// FromDB maps a gorm error to the taxonomy. Requires the gorm session
// to be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey regardless of driver.
func FromDB(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// HTTPStatus maps a taxonomy error to its response status. Unrecognized
// errors are treated as internal.
func HTTPStatus(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrSlugExhausted):
		return http.StatusConflict
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
