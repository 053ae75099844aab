package gateway

import "fmt"

// ErrorKind classifies submission failures.
type ErrorKind int

const (
	NetworkFailure ErrorKind = iota + 1
	MalformedResponse
	NotAuthenticated
	RequestInvalid
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case MalformedResponse:
		return "malformed response"
	case NotAuthenticated:
		return "not authenticated"
	case RequestInvalid:
		return "invalid request"
	}
	return fmt.Sprintf("gateway error %d", int(k))
}

// GatewayError is carried in Result.Err for failures that never produced a
// usable backend response.
type GatewayError struct {
	Kind ErrorKind
	Err  error
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
