package notionsync

import (
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
)

// Error kinds of the record store. Match them with errors.Is.
var (
	ErrQuery          = errors.New("notion: query failed")
	ErrRecordCreation = errors.New("notion: record creation failed")
	ErrRecordUpdate   = errors.New("notion: record update failed")
)

// APIError is a failed record-store call. Status is 0 when the request never
// got an HTTP response.
type APIError struct {
	Kind   error
	Status int
	Body   string
	Err    error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.Kind, e.Status, e.Body)
}

// Is matches the error kind.
func (e *APIError) Is(target error) bool {
	return target == e.Kind
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newAPIError(kind, err error) *APIError {
	apiErr := &APIError{Kind: kind, Body: err.Error(), Err: err}

	var notionErr *notionapi.Error
	if errors.As(err, &notionErr) {
		apiErr.Status = notionErr.Status
		apiErr.Body = fmt.Sprintf("%s: %s", notionErr.Code, notionErr.Message)
	}
	return apiErr
}
