package oauth1

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by error envelopes.
const (
	TextCodeMalformedRequest           = "OAUTH_MALFORMED_REQUEST"
	TextCodeInvalidHeaderParameter     = "OAUTH_INVALID_HEADER_PARAMETER"
	TextCodeUnsupportedVersion         = "OAUTH_UNSUPPORTED_VERSION"
	TextCodeInvalidConsumer            = "OAUTH_INVALID_CONSUMER"
	TextCodeInvalidToken               = "OAUTH_INVALID_TOKEN"
	TextCodeMissingTimestamp           = "OAUTH_MISSING_TIMESTAMP"
	TextCodeExpiredTimestamp           = "OAUTH_EXPIRED_TIMESTAMP"
	TextCodeMissingNonce               = "OAUTH_MISSING_NONCE"
	TextCodeNonceReplayed              = "OAUTH_NONCE_REPLAYED"
	TextCodeUnsupportedSignatureMethod = "OAUTH_UNSUPPORTED_SIGNATURE_METHOD"
	TextCodeInvalidSignature           = "OAUTH_INVALID_SIGNATURE"
	TextCodeKeyMaterialUnavailable     = "OAUTH_KEY_MATERIAL_UNAVAILABLE"
	TextCodeInternal                   = "OAUTH_INTERNAL_ERROR"
)

type envelopeRule struct {
	sentinel error
	category goerrors.Category
	code     int
	textCode string
}

// envelopeRules is checked in order; the first sentinel matched by
// errors.Is wins.
var envelopeRules = []envelopeRule{
	{ErrMalformedRequest, goerrors.CategoryBadInput, http.StatusBadRequest, TextCodeMalformedRequest},
	{ErrInvalidHeaderParameter, goerrors.CategoryBadInput, http.StatusBadRequest, TextCodeInvalidHeaderParameter},
	{ErrUnsupportedVersion, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeUnsupportedVersion},
	{ErrInvalidConsumer, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeInvalidConsumer},
	{ErrInvalidToken, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeInvalidToken},
	{ErrMissingTimestamp, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeMissingTimestamp},
	{ErrExpiredTimestamp, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeExpiredTimestamp},
	{ErrMissingNonce, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeMissingNonce},
	{ErrNonceReplayed, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeNonceReplayed},
	{ErrUnsupportedSignatureMethod, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeUnsupportedSignatureMethod},
	{ErrInvalidSignature, goerrors.CategoryAuth, http.StatusUnauthorized, TextCodeInvalidSignature},
	{ErrKeyMaterialUnavailable, goerrors.CategoryInternal, http.StatusInternalServerError, TextCodeKeyMaterialUnavailable},
}

// ErrorEnvelope maps err to a go-errors envelope carrying the HTTP status,
// category and text code a service provider should answer with. The
// message is the public description of the matched error kind; details
// of internal failures are not exposed. It returns nil for a nil error.
func ErrorEnvelope(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	for _, rule := range envelopeRules {
		if errors.Is(err, rule.sentinel) {
			return goerrors.Wrap(err, rule.category, publicMessage(rule.sentinel)).
				WithCode(rule.code).
				WithTextCode(rule.textCode)
		}
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected error occurred").
		WithCode(http.StatusInternalServerError).
		WithTextCode(TextCodeInternal)
}

// publicMessage strips the package prefix from a sentinel error.
func publicMessage(sentinel error) string {
	return strings.TrimPrefix(sentinel.Error(), "oauth1: ")
}
