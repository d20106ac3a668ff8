package domain

import "errors"

var (
	// ErrInvalidArgument will throw if a method receives a blank, negative or
	// out-of-set argument; it is raised before any network call
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrBadRequest maps status 400, transport or embedded
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized maps status 401, transport or embedded
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden maps status 403, the server blocked access
	ErrForbidden = errors.New("the server blocked access")
	// ErrTlsError maps status 495
	ErrTlsError = errors.New("ssl certificate error")
	// ErrGatewayTimeout maps status 504
	ErrGatewayTimeout = errors.New("the server reported a gateway time-out")
	// ErrMalformedResponse will throw if a response body is not valid JSON or
	// lacks the fields the envelope requires
	ErrMalformedResponse = errors.New("malformed response")
	// ErrTransport will throw on connection-level failures not covered above
	ErrTransport = errors.New("transport failure")
)
