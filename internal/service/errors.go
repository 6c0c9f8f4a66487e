package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthenticated means the action needs a logged in user.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the actor may not touch the target.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidSlug is returned for group slugs outside [-a-zA-Z0-9_]{1,50}.
	ErrInvalidSlug = errors.New("invalid slug")
)

// FieldErrors maps form field names to messages. Nothing is persisted when
// a service returns it.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
