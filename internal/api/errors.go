package api

import "fmt"

// RequestError reports that a scan-API server rejected a request, i.e.
// responded with { "success": false }. Transport failures are not
// wrapped into it, they surface unchanged.
type RequestError struct {
	URL string
}

func (e *RequestError) Error() string {
	return "request to " + e.URL + " failed"
}

// DecodeError reports a response body which is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response of %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// MissingFieldError reports an otherwise successful Envelope lacking an
// expected field, such as "taskid" or "tasks".
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("response has no %q field", e.Field)
}
