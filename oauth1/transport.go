package oauth1

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/net/http/httpguts"
)

// ClientConfig configures client-side signing of HTTP requests.
type ClientConfig struct {
	// Consumer identifies the calling application.
	Consumer Consumer

	// Token is the request or access token. Nil for the request-token
	// step.
	Token *Token

	// Method signs requests. Defaults to HMAC-SHA1.
	Method SignatureMethod

	// Realm is an optional realm for the Authorization header.
	Realm string

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// NonceFunc generates oauth_nonce values. Defaults to GenerateNonce.
	NonceFunc func() (string, error)
}

// SignHTTPRequest signs r in-place and sets its Authorization header.
// The URL query is always covered. For form-encoded POST, PUT and PATCH
// requests the body parameters are covered too; the body is read and put
// back, so callers that must keep their own body should pass a clone with
// a fresh body from GetBody, as Transport does.
func SignHTTPRequest(r *http.Request, cfg ClientConfig) error {
	method := cfg.Method
	if method == nil {
		method = HMACSHA1{}
	}

	var params Params

	if hasFormBody(r) {
		body, err := readAndRestoreBody(r)
		if err != nil {
			return err
		}

		params, err = ParseQuery(string(body))
		if err != nil {
			return err
		}
	}

	req, err := NewRequestFromConsumer(cfg.Consumer, cfg.Token, r.Method, r.URL.String(), params,
		WithClock(cfg.Clock),
		WithNonceFunc(cfg.NonceFunc),
	)
	if err != nil {
		return err
	}

	if err := req.Sign(r.Context(), method, cfg.Consumer, cfg.Token); err != nil {
		return err
	}

	header, err := req.AuthorizationHeader(cfg.Realm)
	if err != nil {
		return err
	}

	if !httpguts.ValidHeaderFieldValue(header) {
		return fmt.Errorf("%w: authorization header contains invalid characters", ErrInvalidHeaderParameter)
	}

	r.Header.Set("Authorization", header)

	return nil
}

// Transport signs every request it carries with the configured consumer
// and token before handing it to the base RoundTripper.
type Transport struct {
	base   http.RoundTripper
	config ClientConfig
}

// NewTransport wraps base. A nil base gets its own clone of
// http.DefaultTransport.
func NewTransport(base *http.Transport, cfg ClientConfig) *Transport {
	if base == nil {
		base = http.DefaultTransport.(*http.Transport).Clone()
	}

	return &Transport{base: base, config: cfg}
}

// RoundTrip implements http.RoundTripper. The caller's request is left
// untouched.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	signed := req.Clone(req.Context())

	if signed.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}

		signed.Body = body
	}

	if err := SignHTTPRequest(signed, t.config); err != nil {
		return nil, err
	}

	return t.base.RoundTrip(signed)
}
