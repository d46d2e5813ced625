package oauth1

// TokenKind scopes a token to a stage of the OAuth flow.
type TokenKind string

const (
	// TokenNone marks the absence of a token (request-token issuance).
	TokenNone TokenKind = ""

	// TokenRequest is a temporary credential awaiting authorization.
	TokenRequest TokenKind = "request"

	// TokenAccess is a token credential granting access to resources.
	TokenAccess TokenKind = "access"
)

// String returns the kind name, or "none" for TokenNone.
func (k TokenKind) String() string {
	if k == TokenNone {
		return "none"
	}

	return string(k)
}

// Consumer identifies the calling application.
type Consumer struct {
	Key    string
	Secret string
}

// Token is a request or access credential pair.
type Token struct {
	Key    string
	Secret string
	Kind   TokenKind
}

// String returns the form-encoded representation a server answers token
// endpoints with: oauth_token=...&oauth_token_secret=...
func (t Token) String() string {
	return ParamToken + "=" + Encode(t.Key) + "&" + ParamTokenSecret + "=" + Encode(t.Secret)
}

// tokenSecret returns the secret of t, or "" when t is nil.
func tokenSecret(t *Token) string {
	if t == nil {
		return ""
	}

	return t.Secret
}

// Protocol parameter names.
const (
	ParamCallback        = "oauth_callback"
	ParamConsumerKey     = "oauth_consumer_key"
	ParamNonce           = "oauth_nonce"
	ParamSignature       = "oauth_signature"
	ParamSignatureMethod = "oauth_signature_method"
	ParamTimestamp       = "oauth_timestamp"
	ParamToken           = "oauth_token"
	ParamTokenSecret     = "oauth_token_secret"
	ParamVerifier        = "oauth_verifier"
	ParamVersion         = "oauth_version"
)

// Version is the only protocol version supported.
const Version = "1.0"
