package oauth1

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
)

// Signature method names as carried in oauth_signature_method.
const (
	MethodPlaintext = "PLAINTEXT"
	MethodHMACSHA1  = "HMAC-SHA1"
	MethodRSASHA1   = "RSA-SHA1"
)

// SignatureMethod produces and checks oauth_signature values.
type SignatureMethod interface {
	// Name returns the oauth_signature_method value for this method.
	Name() string

	// Sign returns the signature for r. The result is not percent-encoded.
	Sign(ctx context.Context, r *Request, consumer Consumer, token *Token) (string, error)

	// Verify checks signature against r. Returns nil on success and an
	// error wrapping ErrInvalidSignature on mismatch.
	Verify(ctx context.Context, r *Request, consumer Consumer, token *Token, signature string) error
}

// signingKey joins the encoded consumer and token secrets with "&". The
// separator is present even when the token secret is empty.
func signingKey(consumer Consumer, token *Token) string {
	return Encode(consumer.Secret) + "&" + Encode(tokenSecret(token))
}

// --- PLAINTEXT ---

// Plaintext is the PLAINTEXT method. The signature is the signing key
// itself; it offers no protection outside a secure channel.
type Plaintext struct{}

// Name implements SignatureMethod.
func (Plaintext) Name() string { return MethodPlaintext }

// Sign implements SignatureMethod. The base string is not used.
func (Plaintext) Sign(_ context.Context, _ *Request, consumer Consumer, token *Token) (string, error) {
	return signingKey(consumer, token), nil
}

// Verify implements SignatureMethod.
func (m Plaintext) Verify(ctx context.Context, r *Request, consumer Consumer, token *Token, signature string) error {
	expected, err := m.Sign(ctx, r, consumer, token)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

// --- HMAC-SHA1 ---

// HMACSHA1 is the HMAC-SHA1 method keyed with the encoded consumer and
// token secrets.
type HMACSHA1 struct{}

// Name implements SignatureMethod.
func (HMACSHA1) Name() string { return MethodHMACSHA1 }

// Sign implements SignatureMethod.
func (HMACSHA1) Sign(_ context.Context, r *Request, consumer Consumer, token *Token) (string, error) {
	mac := computeHMACSHA1([]byte(signingKey(consumer, token)), []byte(r.BaseString()))

	return base64.StdEncoding.EncodeToString(mac), nil
}

// Verify implements SignatureMethod. The comparison is constant-time.
func (m HMACSHA1) Verify(ctx context.Context, r *Request, consumer Consumer, token *Token, signature string) error {
	expected, err := m.Sign(ctx, r, consumer, token)
	if err != nil {
		return err
	}

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}

	return nil
}

func computeHMACSHA1(key, message []byte) []byte {
	h := hmac.New(sha1.New, key)
	h.Write(message)

	return h.Sum(nil)
}
