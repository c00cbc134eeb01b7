package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	// Distinct from ErrUnauthorized so the API-key path can report
	// "invalid api key" instead of a generic credential failure.
	ErrInvalidAPIKey = errors.New("invalid api key")

	// Upload validation failures. Callers wrap these with the observed
	// size or type so the response names the offending value.
	ErrNoFile          = errors.New("no file provided")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrQuotaExceeded means the caller hit their plan ceiling.
	// ErrProfileRead means the usage profile could not be read at all;
	// the caller may retry.
	ErrQuotaExceeded = errors.New("document limit reached")
	ErrProfileRead   = errors.New("usage profile read failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
