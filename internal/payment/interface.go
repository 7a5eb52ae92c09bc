package payment

import "context"

// Gateway defines the operations of an online payment gateway client.
type Gateway interface {
	// Name returns the gateway identifier.
	Name() string

	// RequestPayment asks the gateway for an authority and builds the checkout URL.
	RequestPayment(ctx context.Context, in PaymentRequestInput) *PaymentRequestOutcome

	// VerifyPayment confirms a payment after the user returns from checkout.
	VerifyPayment(ctx context.Context, in PaymentVerifyInput) *PaymentVerifyOutcome
}

// Transport sends one HTTP request and returns the status code and body.
// A non-2xx status must be reported through status, not err.
type Transport interface {
	Send(ctx context.Context, method, url string, headers map[string]string, body []byte) (int, []byte, error)
}
