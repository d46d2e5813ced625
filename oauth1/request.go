package oauth1

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Request is an OAuth request under construction or verification: an HTTP
// method, a URL without query string and a parameter bag. Parameters from
// the URL query are merged into the bag at construction.
//
// A Request is single-use: once Sign succeeds, further mutation or signing
// returns ErrRequestSigned.
type Request struct {
	method string
	url    *url.URL
	params Params
	signed bool
}

// NewRequest creates a Request. Query parameters present in rawURL are
// merged with params; on a name collision the value from params wins.
func NewRequest(method, rawURL string, params Params) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: url must be absolute: %q", ErrMalformedRequest, rawURL)
	}

	merged, err := ParseQuery(u.RawQuery)
	if err != nil {
		return nil, err
	}

	merged.merge(params)

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	return &Request{
		method: method,
		url:    u,
		params: merged,
	}, nil
}

// RequestOption customizes NewRequestFromConsumer.
type RequestOption func(*requestOptions)

type requestOptions struct {
	clock func() time.Time
	nonce func() (string, error)
}

// WithClock sets the time source for oauth_timestamp.
func WithClock(clock func() time.Time) RequestOption {
	return func(o *requestOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithNonceFunc sets the generator for oauth_nonce.
func WithNonceFunc(fn func() (string, error)) RequestOption {
	return func(o *requestOptions) {
		if fn != nil {
			o.nonce = fn
		}
	}
}

// NewRequestFromConsumer creates a Request pre-filled with oauth_version,
// oauth_nonce, oauth_timestamp, oauth_consumer_key and, when token is
// non-empty, oauth_token. Values in params override the defaults.
func NewRequestFromConsumer(consumer Consumer, token *Token, method, rawURL string, params Params, opts ...RequestOption) (*Request, error) {
	o := requestOptions{
		clock: time.Now,
		nonce: GenerateNonce,
	}

	for _, opt := range opts {
		opt(&o)
	}

	nonce, err := o.nonce()
	if err != nil {
		return nil, fmt.Errorf("oauth1: generate nonce: %w", err)
	}

	defaults := Params{}
	defaults.Set(ParamVersion, Version)
	defaults.Set(ParamNonce, nonce)
	defaults.Set(ParamTimestamp, strconv.FormatInt(o.clock().Unix(), 10))
	defaults.Set(ParamConsumerKey, consumer.Key)

	if token != nil && token.Key != "" {
		defaults.Set(ParamToken, token.Key)
	}

	defaults.merge(params)

	return NewRequest(method, rawURL, defaults)
}

// Method returns the upper-cased HTTP method.
func (r *Request) Method() string {
	return strings.ToUpper(r.method)
}

// NormalizedURL returns scheme://host[:port]path as used in the signature
// base string.
func (r *Request) NormalizedURL() string {
	return normalizeURL(r.url)
}

// Parameter returns the first value of name, or "" when absent.
func (r *Request) Parameter(name string) string {
	return r.params.Get(name)
}

// Parameters returns a copy of the parameter bag.
func (r *Request) Parameters() Params {
	return r.params.Clone()
}

// SetParameter sets name to value. When allowDuplicates is true and name
// already exists, value is appended; otherwise existing values are
// replaced.
func (r *Request) SetParameter(name, value string, allowDuplicates bool) error {
	if r.signed {
		return ErrRequestSigned
	}

	if allowDuplicates && r.params.Has(name) {
		r.params.Add(name, value)
	} else {
		r.params.Set(name, value)
	}

	return nil
}

// UnsetParameter removes name.
func (r *Request) UnsetParameter(name string) error {
	if r.signed {
		return ErrRequestSigned
	}

	r.params.Del(name)

	return nil
}

// Signed reports whether Sign has completed on r.
func (r *Request) Signed() bool {
	return r.signed
}

// BaseString returns the signature base string computed from the current
// parameters. It is recomputed on every call.
func (r *Request) BaseString() string {
	return buildBaseString(r.method, r.NormalizedURL(), r.params)
}

// Sign sets oauth_signature_method, computes the signature with method and
// sets oauth_signature. All other parameters must be in place beforehand.
func (r *Request) Sign(ctx context.Context, method SignatureMethod, consumer Consumer, token *Token) error {
	if r.signed {
		return ErrRequestSigned
	}

	if method == nil {
		return fmt.Errorf("%w: signature method must not be nil", ErrUnsupportedSignatureMethod)
	}

	r.params.Set(ParamSignatureMethod, method.Name())

	sig, err := method.Sign(ctx, r, consumer, token)
	if err != nil {
		return err
	}

	r.params.Set(ParamSignature, sig)
	r.signed = true

	return nil
}

// ToURL returns the normalized URL followed by the canonical query of all
// parameters, suitable for a GET request.
func (r *Request) ToURL() string {
	out := r.NormalizedURL()
	if data := r.ToPostData(); data != "" {
		out += "?" + data
	}

	return out
}

// ToPostData returns the canonical query of all parameters, suitable for an
// application/x-www-form-urlencoded body.
func (r *Request) ToPostData() string {
	return CanonicalQuery(r.params)
}

// String returns ToURL.
func (r *Request) String() string {
	return r.ToURL()
}
