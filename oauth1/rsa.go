package oauth1

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// Minimum RSA key size in bits.
const minRSAKeyBits = 1024

// CertificateProvider supplies PEM-encoded RSA key material. Either call
// may block on I/O; the request being signed or verified is passed so the
// provider can select keys per consumer.
type CertificateProvider interface {
	// PublicCertificate returns a PEM CERTIFICATE, PUBLIC KEY or
	// RSA PUBLIC KEY block used for verification.
	PublicCertificate(ctx context.Context, r *Request) ([]byte, error)

	// PrivateKey returns a PEM RSA PRIVATE KEY or PRIVATE KEY block used
	// for signing.
	PrivateKey(ctx context.Context, r *Request) ([]byte, error)
}

// StaticCertificates is a CertificateProvider returning fixed PEM bytes.
// Either field may be empty when only one direction is needed.
type StaticCertificates struct {
	Public  []byte
	Private []byte
}

// PublicCertificate implements CertificateProvider.
func (s StaticCertificates) PublicCertificate(context.Context, *Request) ([]byte, error) {
	if len(s.Public) == 0 {
		return nil, fmt.Errorf("%w: no public certificate configured", ErrKeyMaterialUnavailable)
	}

	return s.Public, nil
}

// PrivateKey implements CertificateProvider.
func (s StaticCertificates) PrivateKey(context.Context, *Request) ([]byte, error) {
	if len(s.Private) == 0 {
		return nil, fmt.Errorf("%w: no private key configured", ErrKeyMaterialUnavailable)
	}

	return s.Private, nil
}

// RSASHA1 is the RSA-SHA1 method: RSASSA-PKCS1-v1_5 over the SHA-1 digest
// of the signature base string.
type RSASHA1 struct {
	provider CertificateProvider
}

// NewRSASHA1 creates an RSA-SHA1 method backed by provider.
func NewRSASHA1(provider CertificateProvider) (*RSASHA1, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: certificate provider must not be nil", ErrKeyMaterialUnavailable)
	}

	return &RSASHA1{provider: provider}, nil
}

// Name implements SignatureMethod.
func (m *RSASHA1) Name() string { return MethodRSASHA1 }

// Sign implements SignatureMethod.
func (m *RSASHA1) Sign(ctx context.Context, r *Request, _ Consumer, _ *Token) (string, error) {
	raw, err := m.provider.PrivateKey(ctx, r)
	if err != nil {
		return "", wrapKeyError(err)
	}

	key, err := ParseRSAPrivateKey(raw)
	if err != nil {
		return "", err
	}

	digest := sha1.Sum([]byte(r.BaseString()))

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA1, digest[:])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
	}

	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify implements SignatureMethod.
func (m *RSASHA1) Verify(ctx context.Context, r *Request, _ Consumer, _ *Token, signature string) error {
	decoded, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("%w: signature is not valid base64", ErrInvalidSignature)
	}

	raw, err := m.provider.PublicCertificate(ctx, r)
	if err != nil {
		return wrapKeyError(err)
	}

	key, err := ParseRSAPublicKey(raw)
	if err != nil {
		return err
	}

	digest := sha1.Sum([]byte(r.BaseString()))
	if err := rsa.VerifyPKCS1v15(key, crypto.SHA1, digest[:], decoded); err != nil {
		return ErrInvalidSignature
	}

	return nil
}

// wrapKeyError makes sure provider failures surface as
// ErrKeyMaterialUnavailable.
func wrapKeyError(err error) error {
	if errors.Is(err, ErrKeyMaterialUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
}

// ParseRSAPrivateKey decodes a PEM "RSA PRIVATE KEY" (PKCS #1) or
// "PRIVATE KEY" (PKCS #8) block.
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyMaterialUnavailable)
	}

	var key *rsa.PrivateKey

	switch block.Type {
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
		}

		key = k

	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
		}

		rsaKey, ok := k.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: private key is not RSA", ErrKeyMaterialUnavailable)
		}

		key = rsaKey

	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrKeyMaterialUnavailable, block.Type)
	}

	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrKeyMaterialUnavailable, minRSAKeyBits)
	}

	return key, nil
}

// ParseRSAPublicKey decodes a PEM "CERTIFICATE", "PUBLIC KEY" (PKIX) or
// "RSA PUBLIC KEY" (PKCS #1) block.
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrKeyMaterialUnavailable)
	}

	var pub any

	switch block.Type {
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
		}

		pub = cert.PublicKey

	case "PUBLIC KEY":
		k, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
		}

		pub = k

	case "RSA PUBLIC KEY":
		k, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrKeyMaterialUnavailable, err)
		}

		pub = k

	default:
		return nil, fmt.Errorf("%w: unsupported PEM block %q", ErrKeyMaterialUnavailable, block.Type)
	}

	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: public key is not RSA", ErrKeyMaterialUnavailable)
	}

	if key.N.BitLen() < minRSAKeyBits {
		return nil, fmt.Errorf("%w: rsa key must be at least %d bits", ErrKeyMaterialUnavailable, minRSAKeyBits)
	}

	return key, nil
}
