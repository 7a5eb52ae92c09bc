package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"zarinpal/internal/pkg/httpclient"
)

const (
	pathRequest    = "/pg/v4/payment/request.json"
	pathVerify     = "/pg/v4/payment/verify.json"
	pathUnverified = "/pg/v4/payment/unVerified.json"
)

var jsonHeaders = map[string]string{
	"Accept":       "application/json",
	"Content-Type": "application/json",
}

var _ Gateway = (*ZarinPal)(nil)

// ZarinPal is a client for the ZarinPal v4 REST API. It holds no state
// besides its configuration and is safe for concurrent use.
type ZarinPal struct {
	merchantID string
	env        Environment
	baseURL    string
	transport  Transport
	// idempotent carries verify and unverified calls; request never uses it.
	idempotent Transport
	logger     *zap.Logger
}

// Option customises a ZarinPal client.
type Option func(*ZarinPal)

// WithTransport replaces the default resty transport.
func WithTransport(t Transport) Option {
	return func(z *ZarinPal) {
		if t != nil {
			z.transport = t
		}
	}
}

// WithRetryTransport sets the transport for calls that are safe to repeat
// (verify, unverified). Payment requests always go through the plain
// transport so a retry cannot mint a second authority.
func WithRetryTransport(t Transport) Option {
	return func(z *ZarinPal) {
		if t != nil {
			z.idempotent = t
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(z *ZarinPal) {
		if l != nil {
			z.logger = l
		}
	}
}

// WithBaseURL overrides the API root, e.g. to go through a proxy.
// The checkout URL still follows the environment.
func WithBaseURL(u string) Option {
	return func(z *ZarinPal) {
		if u != "" {
			z.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// NewZarinPal validates the merchant ID and environment and builds a client.
func NewZarinPal(merchantID string, env Environment, opts ...Option) (*ZarinPal, error) {
	if utf8.RuneCountInString(merchantID) != MerchantIDLength {
		return nil, &ConfigurationError{
			Field:  "merchant_id",
			Reason: "must be 36 characters",
		}
	}
	if !env.valid() {
		return nil, &ConfigurationError{Field: "environment", Reason: "must be production or sandbox"}
	}

	z := &ZarinPal{
		merchantID: merchantID,
		env:        env,
		baseURL:    env.APIBaseURL(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(z)
	}
	if z.transport == nil {
		z.transport = httpclient.New()
	}
	if z.idempotent == nil {
		z.idempotent = z.transport
	}
	return z, nil
}

func (z *ZarinPal) Name() string {
	return "zarinpal"
}

// Environment returns the environment the client was built for.
func (z *ZarinPal) Environment() Environment {
	return z.env
}

func (z *ZarinPal) endpoint(path string) string {
	return z.baseURL + path
}

type requestPayload struct {
	MerchantID  string    `json:"merchant_id"`
	Amount      int64     `json:"amount,string"`
	Currency    string    `json:"currency,omitempty"`
	Description string    `json:"description"`
	CallbackURL string    `json:"callback_url"`
	Metadata    *Metadata `json:"metadata,omitempty"`
}

type verifyPayload struct {
	MerchantID string `json:"merchant_id"`
	Amount     int64  `json:"amount,string"`
	Authority  string `json:"authority"`
}

type merchantPayload struct {
	MerchantID string `json:"merchant_id"`
}

func (z *ZarinPal) requestPayload(in PaymentRequestInput) requestPayload {
	p := requestPayload{
		MerchantID:  z.merchantID,
		Amount:      in.Amount,
		Currency:    in.Currency,
		Description: in.Description,
		CallbackURL: in.CallbackURL,
	}
	if !in.Metadata.empty() {
		md := in.Metadata
		p.Metadata = &md
	}
	return p
}

func (z *ZarinPal) verifyPayload(in PaymentVerifyInput) verifyPayload {
	return verifyPayload{
		MerchantID: z.merchantID,
		Amount:     in.Amount,
		Authority:  in.Authority,
	}
}

func validateRequest(in PaymentRequestInput) *Failure {
	switch {
	case in.Amount <= 0:
		return invalidInput("amount must be positive")
	case strings.TrimSpace(in.Description) == "":
		return invalidInput("description is required")
	case strings.TrimSpace(in.CallbackURL) == "":
		return invalidInput("callback_url is required")
	}
	return nil
}

func validateVerify(in PaymentVerifyInput) *Failure {
	switch {
	case in.Amount <= 0:
		return invalidInput("amount must be positive")
	case in.Authority == "":
		return invalidInput("authority is required")
	}
	return nil
}

// call performs a single POST and classifies the result.
func (z *ZarinPal) call(ctx context.Context, t Transport, op, path string, payload interface{}) (json.RawMessage, *Failure) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, z.fail(op, transportFailure("encode payload", err))
	}

	url := z.endpoint(path)
	z.logger.Debug("zarinpal request",
		zap.String("operation", op),
		zap.String("env", z.env.String()),
		zap.String("url", url))

	status, respBody, sendErr := t.Send(ctx, http.MethodPost, url, jsonHeaders, body)
	data, f := classify(status, respBody, sendErr)
	if f != nil {
		return nil, z.fail(op, f)
	}
	return data, nil
}

func (z *ZarinPal) fail(op string, f *Failure) *Failure {
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("kind", string(f.Kind)),
		zap.Int("code", f.Code),
		zap.String("message", f.Message),
	}
	if f.StatusCode != 0 {
		fields = append(fields, zap.Int("status", f.StatusCode))
	}
	if f.Err != nil {
		fields = append(fields, zap.Error(f.Err))
	}
	z.logger.Warn("zarinpal call failed", fields...)
	return f
}

type requestData struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Authority string      `json:"authority"`
	FeeType   string      `json:"fee_type"`
	Fee       json.Number `json:"fee"`
}

// RequestPayment asks the gateway for an authority. On success the outcome
// carries the checkout URL for the client's environment.
func (z *ZarinPal) RequestPayment(ctx context.Context, in PaymentRequestInput) *PaymentRequestOutcome {
	const op = "request"
	if f := validateRequest(in); f != nil {
		return &PaymentRequestOutcome{Failure: z.fail(op, f)}
	}

	raw, f := z.call(ctx, z.transport, op, pathRequest, z.requestPayload(in))
	if f != nil {
		return &PaymentRequestOutcome{Failure: f}
	}

	var d requestData
	if err := json.Unmarshal(raw, &d); err != nil {
		return &PaymentRequestOutcome{Failure: z.fail(op, transportFailure("unparseable data envelope", err))}
	}
	if d.Code != codeOK {
		return &PaymentRequestOutcome{Failure: z.fail(op, gatewayFailure(d.Code, d.Message))}
	}
	payURL, ok := StartPayURL(z.env, d.Authority)
	if !ok {
		return &PaymentRequestOutcome{Failure: z.fail(op, gatewayFailure(d.Code, "malformed success envelope: no authority"))}
	}

	return &PaymentRequestOutcome{
		Authority:  d.Authority,
		Code:       d.Code,
		Fee:        optionalInt(d.Fee),
		FeeType:    d.FeeType,
		Message:    d.Message,
		PaymentURL: payURL,
	}
}

type verifyData struct {
	Code        int         `json:"code"`
	Message     string      `json:"message"`
	RefID       json.Number `json:"ref_id"`
	CardPAN     string      `json:"card_pan"`
	CardHash    string      `json:"card_hash"`
	FeeType     string      `json:"fee_type"`
	Fee         json.Number `json:"fee"`
	ShaparakFee json.Number `json:"shaparak_fee"`
	OrderID     string      `json:"order_id"`
}

// VerifyPayment confirms a payment. Code 101 (already verified) counts as
// success; the gateway decides what a repeated verify returns.
func (z *ZarinPal) VerifyPayment(ctx context.Context, in PaymentVerifyInput) *PaymentVerifyOutcome {
	const op = "verify"
	if f := validateVerify(in); f != nil {
		return &PaymentVerifyOutcome{Failure: z.fail(op, f)}
	}

	raw, f := z.call(ctx, z.idempotent, op, pathVerify, z.verifyPayload(in))
	if f != nil {
		return &PaymentVerifyOutcome{Failure: f}
	}

	var d verifyData
	if err := json.Unmarshal(raw, &d); err != nil {
		return &PaymentVerifyOutcome{Failure: z.fail(op, transportFailure("unparseable data envelope", err))}
	}
	if d.Code != codeOK && d.Code != codeAlreadyVerified {
		return &PaymentVerifyOutcome{Failure: z.fail(op, gatewayFailure(d.Code, d.Message))}
	}
	if d.RefID == "" {
		return &PaymentVerifyOutcome{Failure: z.fail(op, gatewayFailure(d.Code, "malformed success envelope: no ref_id"))}
	}

	return &PaymentVerifyOutcome{
		RefID:       d.RefID.String(),
		Code:        d.Code,
		Fee:         optionalInt(d.Fee),
		FeeType:     d.FeeType,
		CardPAN:     d.CardPAN,
		CardHash:    d.CardHash,
		ShaparakFee: optionalInt(d.ShaparakFee),
		OrderID:     d.OrderID,
		Message:     d.Message,
	}
}

type unverifiedData struct {
	Code        int                     `json:"code"`
	Message     string                  `json:"message"`
	Authorities []UnverifiedTransaction `json:"authorities"`
}

// UnverifiedTransactions lists payments the user completed but the merchant
// never verified.
func (z *ZarinPal) UnverifiedTransactions(ctx context.Context) *UnverifiedOutcome {
	const op = "unverified"
	raw, f := z.call(ctx, z.idempotent, op, pathUnverified, merchantPayload{MerchantID: z.merchantID})
	if f != nil {
		return &UnverifiedOutcome{Failure: f}
	}

	var d unverifiedData
	if err := json.Unmarshal(raw, &d); err != nil {
		return &UnverifiedOutcome{Failure: z.fail(op, transportFailure("unparseable data envelope", err))}
	}
	if d.Code != codeOK {
		return &UnverifiedOutcome{Failure: z.fail(op, gatewayFailure(d.Code, d.Message))}
	}
	return &UnverifiedOutcome{
		Code:         d.Code,
		Message:      d.Message,
		Transactions: d.Authorities,
	}
}
