package payment

import (
	"fmt"
	"strings"
)

// MerchantIDLength is the length of a ZarinPal merchant ID.
const MerchantIDLength = 36

// Environment selects the gateway instance a client talks to.
type Environment int

const (
	Production Environment = iota + 1
	Sandbox
)

func (e Environment) String() string {
	switch e {
	case Production:
		return "production"
	case Sandbox:
		return "sandbox"
	default:
		return fmt.Sprintf("environment(%d)", int(e))
	}
}

func (e Environment) valid() bool {
	return e == Production || e == Sandbox
}

// APIBaseURL returns the REST API root for the environment.
func (e Environment) APIBaseURL() string {
	if e == Sandbox {
		return "https://sandbox.zarinpal.com"
	}
	return "https://api.zarinpal.com"
}

// StartPayBaseURL returns the hosted checkout prefix for the environment.
func (e Environment) StartPayBaseURL() string {
	if e == Sandbox {
		return "https://sandbox.zarinpal.com/pg/StartPay/"
	}
	return "https://www.zarinpal.com/pg/StartPay/"
}

// ParseEnvironment maps a configuration value to an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod", "live":
		return Production, nil
	case "sandbox", "test":
		return Sandbox, nil
	}
	return 0, &ConfigurationError{Field: "environment", Reason: fmt.Sprintf("unknown value %q", s)}
}

// StartPayURL builds the checkout URL the user is redirected to.
// It reports false for an empty authority.
func StartPayURL(env Environment, authority string) (string, bool) {
	if authority == "" {
		return "", false
	}
	return env.StartPayBaseURL() + authority, true
}

// Metadata holds the optional buyer details sent with a payment request.
// A nil field is left out of the payload.
type Metadata struct {
	Mobile  *string `json:"mobile,omitempty"`
	Email   *string `json:"email,omitempty"`
	OrderID *string `json:"order_id,omitempty"`
}

func (m Metadata) empty() bool {
	return m.Mobile == nil && m.Email == nil && m.OrderID == nil
}

// PaymentRequestInput is the caller's data for a new payment.
// Amount is in the smallest currency unit.
type PaymentRequestInput struct {
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency,omitempty"`
	Description string   `json:"description"`
	CallbackURL string   `json:"callback_url"`
	Metadata    Metadata `json:"metadata"`
}

// PaymentVerifyInput identifies the payment to confirm. Amount must equal
// the amount of the original request; the gateway enforces that.
type PaymentVerifyInput struct {
	Amount    int64  `json:"amount"`
	Authority string `json:"authority"`
}

// PaymentRequestOutcome is the normalized result of RequestPayment.
// Either Failure is nil and Authority and PaymentURL are set, or Failure is
// set and both are empty.
type PaymentRequestOutcome struct {
	Authority  string   `json:"authority,omitempty"`
	Code       int      `json:"code,omitempty"`
	Fee        *int64   `json:"fee,omitempty"`
	FeeType    string   `json:"fee_type,omitempty"`
	Message    string   `json:"message,omitempty"`
	PaymentURL string   `json:"payment_url,omitempty"`
	Failure    *Failure `json:"failure,omitempty"`
}

// Succeeded reports whether the gateway issued an authority.
func (o *PaymentRequestOutcome) Succeeded() bool {
	return o != nil && o.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (o *PaymentRequestOutcome) Err() error {
	if o == nil || o.Failure == nil {
		return nil
	}
	return o.Failure
}

// PaymentVerifyOutcome is the normalized result of VerifyPayment.
type PaymentVerifyOutcome struct {
	RefID       string   `json:"ref_id,omitempty"`
	Code        int      `json:"code,omitempty"`
	Fee         *int64   `json:"fee,omitempty"`
	FeeType     string   `json:"fee_type,omitempty"`
	CardPAN     string   `json:"card_pan,omitempty"`
	CardHash    string   `json:"card_hash,omitempty"`
	ShaparakFee *int64   `json:"shaparak_fee,omitempty"`
	OrderID     string   `json:"order_id,omitempty"`
	Message     string   `json:"message,omitempty"`
	Failure     *Failure `json:"failure,omitempty"`
}

// Succeeded reports whether the payment was settled.
func (o *PaymentVerifyOutcome) Succeeded() bool {
	return o != nil && o.Failure == nil
}

// AlreadyVerified reports whether the gateway had verified this authority before.
func (o *PaymentVerifyOutcome) AlreadyVerified() bool {
	return o.Succeeded() && o.Code == codeAlreadyVerified
}

// Err returns the failure as an error, or nil on success.
func (o *PaymentVerifyOutcome) Err() error {
	if o == nil || o.Failure == nil {
		return nil
	}
	return o.Failure
}

// UnverifiedTransaction is a paid but not yet verified payment.
type UnverifiedTransaction struct {
	Authority   string `json:"authority"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
	Referer     string `json:"referer,omitempty"`
	Date        string `json:"date,omitempty"`
}

// UnverifiedOutcome is the normalized result of UnverifiedTransactions.
type UnverifiedOutcome struct {
	Code         int                     `json:"code,omitempty"`
	Message      string                  `json:"message,omitempty"`
	Transactions []UnverifiedTransaction `json:"transactions,omitempty"`
	Failure      *Failure                `json:"failure,omitempty"`
}

// Succeeded reports whether the list was retrieved.
func (o *UnverifiedOutcome) Succeeded() bool {
	return o != nil && o.Failure == nil
}

// Err returns the failure as an error, or nil on success.
func (o *UnverifiedOutcome) Err() error {
	if o == nil || o.Failure == nil {
		return nil
	}
	return o.Failure
}
