package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// Result codes of the v4 API.
const (
	codeOK              = 100
	codeAlreadyVerified = 101
)

// envelope is the v4 response shape. On success data is an object and
// errors is an empty array; on failure it is the other way round.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors json.RawMessage `json:"errors"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// decodeErrors returns the gateway error carried by an errors object, if any.
func decodeErrors(raw json.RawMessage) (*errorBody, bool) {
	if !isObject(raw) {
		return nil, false
	}
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return nil, false
	}
	if eb.Code == 0 && eb.Message == "" {
		return nil, false
	}
	return &eb, true
}

// classify turns a raw transport result into the data object of a success
// envelope or a Failure. Business codes inside data are checked by the caller.
func classify(status int, body []byte, sendErr error) (json.RawMessage, *Failure) {
	if sendErr != nil {
		return nil, transportFailure("request failed", sendErr)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if status != http.StatusOK {
		f := &Failure{Kind: FailureTransport, StatusCode: status, Message: http.StatusText(status)}
		if decodeErr == nil {
			if eb, ok := decodeErrors(env.Errors); ok {
				f.Code = eb.Code
				f.Message = eb.Message
			}
		}
		return nil, f
	}

	if decodeErr != nil {
		return nil, transportFailure("unparseable response body", decodeErr)
	}
	if eb, ok := decodeErrors(env.Errors); ok {
		return nil, gatewayFailure(eb.Code, eb.Message)
	}
	if !isObject(env.Data) {
		return nil, transportFailure("response has no data envelope", nil)
	}
	return env.Data, nil
}

// optionalInt converts a numeric field the gateway may omit or quote.
func optionalInt(n json.Number) *int64 {
	if n == "" {
		return nil
	}
	if v, err := n.Int64(); err == nil {
		return &v
	}
	f, err := n.Float64()
	if err != nil {
		return nil
	}
	v := int64(f)
	return &v
}
