package util

import "fmt"

// MyResponseError carries the HTTP status a handler wants for an error. The
// central error handler unwraps it; Msg is sent to the client verbatim, so it
// must never contain claim contents or storage detail.
type MyResponseError struct {
	Msg    string
	Status int
}

func (e MyResponseError) Error() string { return e.Msg }

func NewResponseError(status int, format string, args ...interface{}) error {
	return MyResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}
