package payment

import "fmt"

// ConfigurationError is returned when a client cannot be built from the
// given settings. It is the only failure that surfaces at construction.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("payment: invalid %s: %s", e.Field, e.Reason)
}

// FailureKind classifies a per-call failure.
type FailureKind string

const (
	// FailureTransport covers network errors, non-200 statuses and bodies
	// that are not a recognisable envelope.
	FailureTransport FailureKind = "transport"
	// FailureGateway is a well-formed response in which the gateway rejected
	// the request.
	FailureGateway FailureKind = "gateway"
	// FailureInvalidInput means the call was refused before any request was sent.
	FailureInvalidInput FailureKind = "invalid_input"
)

// Failure describes why a call did not succeed. Code and Message carry the
// gateway's own values when it provided them.
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Code       int         `json:"code,omitempty"`
	Message    string      `json:"message,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Err        error       `json:"-"`
}

func (f *Failure) Error() string {
	switch {
	case f.Kind == FailureGateway:
		return fmt.Sprintf("zarinpal %s failure: code=%d message=%q", f.Kind, f.Code, f.Message)
	case f.Err != nil:
		return fmt.Sprintf("zarinpal %s failure: %s: %v", f.Kind, f.Message, f.Err)
	case f.StatusCode != 0:
		return fmt.Sprintf("zarinpal %s failure: http %d: %s", f.Kind, f.StatusCode, f.Message)
	default:
		return fmt.Sprintf("zarinpal %s failure: %s", f.Kind, f.Message)
	}
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func transportFailure(message string, err error) *Failure {
	return &Failure{Kind: FailureTransport, Message: message, Err: err}
}

func gatewayFailure(code int, message string) *Failure {
	return &Failure{Kind: FailureGateway, Code: code, Message: message}
}

func invalidInput(message string) *Failure {
	return &Failure{Kind: FailureInvalidInput, Message: message}
}
