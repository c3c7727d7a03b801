package downstream

import "errors"

var (
	ErrInvalidEndpoint    = errors.New("invalid downstream endpoint")
	ErrRequestFailed      = errors.New("downstream request failed")
	ErrTimeout            = errors.New("downstream request timeout")
	ErrUnexpectedStatus   = errors.New("unexpected downstream status")
	ErrGraphQL            = errors.New("graphql error")
	ErrUnexpectedResponse = errors.New("unexpected downstream response")
	ErrCircuitOpen        = errors.New("downstream circuit breaker is open")
)
