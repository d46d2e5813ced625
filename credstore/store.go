// Package credstore is an in-memory credential store for OAuth 1.0a
// service providers, seeded from YAML.
//
// A Store answers consumer and token lookups for oauth1.Server, issues
// request and access tokens, and serves consumer RSA certificates to
// oauth1.RSASHA1. Issued tokens live in memory only.
package credstore

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/vitalvas/oauth1/oauth1"
)

var (
	// ErrDuplicateConsumer is returned when a consumer key is added twice.
	ErrDuplicateConsumer = errors.New("credstore: duplicate consumer key")

	// ErrDuplicateToken is returned when a token key is added twice.
	ErrDuplicateToken = errors.New("credstore: duplicate token key")

	// ErrUnknownConsumer is returned when a token references a consumer
	// that is not in the store.
	ErrUnknownConsumer = errors.New("credstore: unknown consumer")
)

type consumerRecord struct {
	consumer   oauth1.Consumer
	publicCert []byte
}

type tokenRecord struct {
	token       oauth1.Token
	consumerKey string
	callback    string
	verifier    string
}

// Authorization is the outcome of the resource owner approving a request
// token.
type Authorization struct {
	Token    string
	Verifier string
	Callback string
}

// Store holds consumers and tokens. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	consumers map[string]consumerRecord
	tokens    map[string]tokenRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		consumers: map[string]consumerRecord{},
		tokens:    map[string]tokenRecord{},
	}
}

// AddConsumer registers a consumer. publicCert is an optional PEM
// certificate or public key used to verify RSA-SHA1 signatures.
func (s *Store) AddConsumer(consumer oauth1.Consumer, publicCert []byte) error {
	if consumer.Key == "" {
		return fmt.Errorf("credstore: consumer key is required")
	}

	if len(publicCert) > 0 {
		if _, err := oauth1.ParseRSAPublicKey(publicCert); err != nil {
			return fmt.Errorf("credstore: consumer %q: %w", consumer.Key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.consumers[consumer.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateConsumer, consumer.Key)
	}

	s.consumers[consumer.Key] = consumerRecord{
		consumer:   consumer,
		publicCert: publicCert,
	}

	return nil
}

// AddToken registers a pre-provisioned token owned by consumerKey.
func (s *Store) AddToken(consumerKey string, token oauth1.Token) error {
	if token.Key == "" {
		return fmt.Errorf("credstore: token key is required")
	}

	if token.Kind != oauth1.TokenRequest && token.Kind != oauth1.TokenAccess {
		return fmt.Errorf("credstore: token %q: invalid kind %q", token.Key, token.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.consumers[consumerKey]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownConsumer, consumerKey)
	}

	if _, ok := s.tokens[token.Key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateToken, token.Key)
	}

	s.tokens[token.Key] = tokenRecord{token: token, consumerKey: consumerKey}

	return nil
}

// LookupConsumer implements oauth1.ConsumerLookup.
func (s *Store) LookupConsumer(_ context.Context, key string) (oauth1.Consumer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.consumers[key]
	if !ok {
		return oauth1.Consumer{}, oauth1.ErrNotFound
	}

	return rec.consumer, nil
}

// LookupToken implements oauth1.TokenLookup. A token is only found for the
// consumer it was issued to and with the requested kind.
func (s *Store) LookupToken(_ context.Context, consumer oauth1.Consumer, kind oauth1.TokenKind, key string) (oauth1.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tokens[key]
	if !ok || rec.consumerKey != consumer.Key || rec.token.Kind != kind {
		return oauth1.Token{}, oauth1.ErrNotFound
	}

	return rec.token, nil
}

// NewRequestToken implements oauth1.TokenIssuer.
func (s *Store) NewRequestToken(_ context.Context, consumer oauth1.Consumer, callback string) (oauth1.Token, error) {
	token, err := newToken(oauth1.TokenRequest)
	if err != nil {
		return oauth1.Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Key] = tokenRecord{
		token:       token,
		consumerKey: consumer.Key,
		callback:    callback,
	}

	return token, nil
}

// Authorize records the resource owner's approval of a request token and
// returns the verifier the consumer must present when exchanging it.
func (s *Store) Authorize(_ context.Context, requestToken string) (Authorization, error) {
	verifier, err := randomHex()
	if err != nil {
		return Authorization{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[requestToken]
	if !ok || rec.token.Kind != oauth1.TokenRequest {
		return Authorization{}, oauth1.ErrNotFound
	}

	rec.verifier = verifier
	s.tokens[requestToken] = rec

	return Authorization{
		Token:    requestToken,
		Verifier: verifier,
		Callback: rec.callback,
	}, nil
}

// NewAccessToken implements oauth1.TokenIssuer. The request token must
// have been authorized and the verifier must match; on success the request
// token is revoked.
func (s *Store) NewAccessToken(_ context.Context, consumer oauth1.Consumer, requestToken oauth1.Token, verifier string) (oauth1.Token, error) {
	token, err := newToken(oauth1.TokenAccess)
	if err != nil {
		return oauth1.Token{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tokens[requestToken.Key]
	if !ok || rec.token.Kind != oauth1.TokenRequest || rec.consumerKey != consumer.Key {
		return oauth1.Token{}, oauth1.ErrInvalidToken
	}

	if rec.verifier == "" {
		return oauth1.Token{}, fmt.Errorf("%w: request token not authorized", oauth1.ErrInvalidToken)
	}

	if subtle.ConstantTimeCompare([]byte(rec.verifier), []byte(verifier)) != 1 {
		return oauth1.Token{}, fmt.Errorf("%w: verifier mismatch", oauth1.ErrInvalidToken)
	}

	delete(s.tokens, requestToken.Key)
	s.tokens[token.Key] = tokenRecord{token: token, consumerKey: consumer.Key}

	return token, nil
}

// Revoke removes a token. It reports whether the token existed.
func (s *Store) Revoke(_ context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[key]; !ok {
		return false
	}

	delete(s.tokens, key)

	return true
}

// PublicCertificate implements oauth1.CertificateProvider using the
// certificate registered for the request's oauth_consumer_key.
func (s *Store) PublicCertificate(_ context.Context, r *oauth1.Request) ([]byte, error) {
	key := r.Parameter(oauth1.ParamConsumerKey)

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.consumers[key]
	if !ok || len(rec.publicCert) == 0 {
		return nil, fmt.Errorf("%w: no certificate for consumer %q", oauth1.ErrKeyMaterialUnavailable, key)
	}

	return rec.publicCert, nil
}

// PrivateKey implements oauth1.CertificateProvider. A provider never holds
// consumer private keys.
func (s *Store) PrivateKey(context.Context, *oauth1.Request) ([]byte, error) {
	return nil, fmt.Errorf("%w: private keys are not stored", oauth1.ErrKeyMaterialUnavailable)
}

func newToken(kind oauth1.TokenKind) (oauth1.Token, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return oauth1.Token{}, err
	}

	secret, err := randomHex()
	if err != nil {
		return oauth1.Token{}, err
	}

	return oauth1.Token{Key: id.String(), Secret: secret, Kind: kind}, nil
}

func randomHex() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(id[:]), nil
}

var (
	_ oauth1.ConsumerLookup      = (*Store)(nil)
	_ oauth1.TokenLookup         = (*Store)(nil)
	_ oauth1.TokenIssuer         = (*Store)(nil)
	_ oauth1.CertificateProvider = (*Store)(nil)
)
