package morning

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; use errors.As with *APIError for the
// HTTP status and body.
var (
	ErrAuth             = errors.New("morning: authentication failed")
	ErrDocumentCreation = errors.New("morning: document creation failed")
	ErrDistribution     = errors.New("morning: distribution failed")
	ErrNoRecipient      = errors.New("morning: client has no email address")
)

// APIError is a non-success response from the billing API.
type APIError struct {
	Kind   error
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.Kind, e.Status, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}
