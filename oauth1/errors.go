package oauth1

import "errors"

// Request errors.
var (
	// ErrMalformedRequest is returned when a URL, query string, timestamp
	// or Authorization header cannot be parsed.
	ErrMalformedRequest = errors.New("oauth1: malformed request")

	// ErrInvalidHeaderParameter is returned when an oauth parameter carries
	// more than one value and therefore cannot be placed in an
	// Authorization header.
	ErrInvalidHeaderParameter = errors.New("oauth1: multi-valued parameter not supported in header")

	// ErrRequestSigned is returned when a signed request is mutated or
	// signed a second time.
	ErrRequestSigned = errors.New("oauth1: request already signed")
)

// Verification errors.
var (
	// ErrUnsupportedVersion is returned when oauth_version is present and
	// not "1.0".
	ErrUnsupportedVersion = errors.New("oauth1: unsupported oauth version")

	// ErrInvalidConsumer is returned when oauth_consumer_key is missing or
	// unknown.
	ErrInvalidConsumer = errors.New("oauth1: invalid consumer")

	// ErrInvalidToken is returned when oauth_token does not resolve to a
	// token of the expected kind.
	ErrInvalidToken = errors.New("oauth1: invalid token")

	// ErrMissingTimestamp is returned when oauth_timestamp is absent.
	ErrMissingTimestamp = errors.New("oauth1: missing timestamp parameter")

	// ErrExpiredTimestamp is returned when oauth_timestamp is outside the
	// accepted window.
	ErrExpiredTimestamp = errors.New("oauth1: expired timestamp")

	// ErrMissingNonce is returned when oauth_nonce is absent.
	ErrMissingNonce = errors.New("oauth1: missing nonce parameter")

	// ErrNonceReplayed is returned when the nonce was already used for the
	// same consumer, token and timestamp.
	ErrNonceReplayed = errors.New("oauth1: nonce already used")

	// ErrUnsupportedSignatureMethod is returned when oauth_signature_method
	// is missing or not registered.
	ErrUnsupportedSignatureMethod = errors.New("oauth1: unsupported signature method")

	// ErrInvalidSignature is returned when signature verification fails.
	ErrInvalidSignature = errors.New("oauth1: invalid signature")
)

// Key material errors.
var (
	// ErrKeyMaterialUnavailable is returned when a certificate provider
	// fails or returns unusable key material.
	ErrKeyMaterialUnavailable = errors.New("oauth1: key material unavailable")
)

// Collaborator errors.
var (
	// ErrNotFound is returned by lookup collaborators when a consumer or
	// token does not exist.
	ErrNotFound = errors.New("oauth1: not found")

	// ErrNoConsumerLookup is returned when ServerConfig has no Consumers.
	ErrNoConsumerLookup = errors.New("oauth1: consumer lookup must not be nil")

	// ErrNoNonceStore is returned when ServerConfig has no Nonces.
	ErrNoNonceStore = errors.New("oauth1: nonce store must not be nil")

	// ErrNoTokenLookup is returned when a token-scoped verification runs
	// without a TokenLookup.
	ErrNoTokenLookup = errors.New("oauth1: token lookup must not be nil")

	// ErrNoTokenIssuer is returned when a token endpoint is used without a
	// TokenIssuer.
	ErrNoTokenIssuer = errors.New("oauth1: token issuer must not be nil")

	// ErrNoServer is returned when MiddlewareConfig has no Server.
	ErrNoServer = errors.New("oauth1: server must not be nil")
)
