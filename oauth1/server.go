package oauth1

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// DefaultTimestampThreshold is the accepted distance between
// oauth_timestamp and the server clock.
const DefaultTimestampThreshold = 300 * time.Second

// ConsumerLookup resolves consumers by key. It returns an error wrapping
// ErrNotFound for unknown keys.
type ConsumerLookup interface {
	LookupConsumer(ctx context.Context, key string) (Consumer, error)
}

// TokenLookup resolves tokens of a given kind issued to consumer. It
// returns an error wrapping ErrNotFound for unknown keys.
type TokenLookup interface {
	LookupToken(ctx context.Context, consumer Consumer, kind TokenKind, key string) (Token, error)
}

// NonceStore records used nonces. CheckAndRecord must be atomic: it
// returns true when the (consumer, token, nonce, timestamp) tuple was not
// seen before and records it in the same step, and false when it was.
// Concurrent calls with the same tuple must yield exactly one true.
type NonceStore interface {
	CheckAndRecord(ctx context.Context, consumer Consumer, token *Token, nonce string, timestamp int64) (bool, error)
}

// TokenIssuer creates tokens for the token endpoints.
type TokenIssuer interface {
	// NewRequestToken issues a request token for consumer. callback is the
	// oauth_callback value, possibly empty.
	NewRequestToken(ctx context.Context, consumer Consumer, callback string) (Token, error)

	// NewAccessToken exchanges an authorized request token for an access
	// token. verifier is the oauth_verifier value, possibly empty.
	NewAccessToken(ctx context.Context, consumer Consumer, requestToken Token, verifier string) (Token, error)
}

// ServerConfig configures a Server.
type ServerConfig struct {
	// Consumers resolves oauth_consumer_key. Required.
	Consumers ConsumerLookup

	// Tokens resolves oauth_token. Required for token-scoped flows.
	Tokens TokenLookup

	// Nonces enforces nonce uniqueness. Required.
	Nonces NonceStore

	// Issuer creates tokens for FetchRequestToken and FetchAccessToken.
	Issuer TokenIssuer

	// Methods lists accepted signature methods. Defaults to HMAC-SHA1.
	Methods []SignatureMethod

	// Threshold is the accepted timestamp skew in either direction,
	// rounded up to whole seconds. Defaults to DefaultTimestampThreshold.
	Threshold time.Duration

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time

	// Logger receives verification outcomes. Defaults to a no-op logger.
	Logger glog.Logger
}

// Server verifies signed requests on behalf of a service provider.
type Server struct {
	consumers ConsumerLookup
	tokens    TokenLookup
	nonces    NonceStore
	issuer    TokenIssuer
	threshold int64
	clock     func() time.Time
	logger    glog.Logger

	mu      sync.RWMutex
	methods map[string]SignatureMethod
}

// NewServer creates a Server from cfg.
//
// It returns ErrNoConsumerLookup or ErrNoNonceStore when the corresponding
// collaborator is missing.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Consumers == nil {
		return nil, ErrNoConsumerLookup
	}

	if cfg.Nonces == nil {
		return nil, ErrNoNonceStore
	}

	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultTimestampThreshold
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = glog.Nop()
	}

	methods := cfg.Methods
	if len(methods) == 0 {
		methods = []SignatureMethod{HMACSHA1{}}
	}

	s := &Server{
		consumers: cfg.Consumers,
		tokens:    cfg.Tokens,
		nonces:    cfg.Nonces,
		issuer:    cfg.Issuer,
		threshold: int64((threshold + time.Second - 1) / time.Second),
		clock:     clock,
		logger:    logger,
		methods:   make(map[string]SignatureMethod, len(methods)),
	}

	for _, m := range methods {
		s.AddSignatureMethod(m)
	}

	return s, nil
}

// AddSignatureMethod registers m under its name, replacing any method
// with the same name. A nil method is ignored.
func (s *Server) AddSignatureMethod(m SignatureMethod) {
	if m == nil {
		return
	}

	s.mu.Lock()
	s.methods[m.Name()] = m
	s.mu.Unlock()
}

// SignatureMethods returns the registered method names in sorted order.
func (s *Server) SignatureMethods() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.methods))
	for name := range s.methods {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// FetchRequestToken verifies a request-token request, which carries no
// token, and issues a new request token.
func (s *Server) FetchRequestToken(ctx context.Context, r *Request) (Token, error) {
	if s.issuer == nil {
		return Token{}, ErrNoTokenIssuer
	}

	consumer, _, err := s.Verify(ctx, r, TokenNone)
	if err != nil {
		return Token{}, err
	}

	return s.issuer.NewRequestToken(ctx, consumer, r.Parameter(ParamCallback))
}

// FetchAccessToken verifies an access-token request signed with a request
// token and exchanges that token for an access token.
func (s *Server) FetchAccessToken(ctx context.Context, r *Request) (Token, error) {
	if s.issuer == nil {
		return Token{}, ErrNoTokenIssuer
	}

	consumer, token, err := s.Verify(ctx, r, TokenRequest)
	if err != nil {
		return Token{}, err
	}

	return s.issuer.NewAccessToken(ctx, consumer, *token, r.Parameter(ParamVerifier))
}

// VerifyRequest verifies a protected-resource request signed with an
// access token.
func (s *Server) VerifyRequest(ctx context.Context, r *Request) (Consumer, Token, error) {
	consumer, token, err := s.Verify(ctx, r, TokenAccess)
	if err != nil {
		return Consumer{}, Token{}, err
	}

	return consumer, *token, nil
}

// Verify runs every check on r and stops at the first failure. The order
// is version, consumer, token, timestamp, nonce, signature method and
// signature. When kind is TokenNone the token check is skipped and the
// returned token is nil.
func (s *Server) Verify(ctx context.Context, r *Request, kind TokenKind) (Consumer, *Token, error) {
	consumer, token, err := s.verify(ctx, r, kind)

	logger := s.logger.WithContext(ctx)
	if err != nil {
		logger.Warn("oauth request rejected",
			"consumer_key", r.Parameter(ParamConsumerKey),
			"token_kind", kind.String(),
			"reason", err.Error(),
		)

		return Consumer{}, nil, err
	}

	logger.Debug("oauth request verified",
		"consumer_key", consumer.Key,
		"token_kind", kind.String(),
		"signature_method", r.Parameter(ParamSignatureMethod),
	)

	return consumer, token, nil
}

func (s *Server) verify(ctx context.Context, r *Request, kind TokenKind) (Consumer, *Token, error) {
	if err := checkVersion(r); err != nil {
		return Consumer{}, nil, err
	}

	consumer, err := s.lookupConsumer(ctx, r)
	if err != nil {
		return Consumer{}, nil, err
	}

	var token *Token
	if kind != TokenNone {
		token, err = s.lookupToken(ctx, r, consumer, kind)
		if err != nil {
			return Consumer{}, nil, err
		}
	}

	timestamp, err := s.checkTimestamp(r)
	if err != nil {
		return Consumer{}, nil, err
	}

	if err := s.checkNonce(ctx, r, consumer, token, timestamp); err != nil {
		return Consumer{}, nil, err
	}

	method, err := s.signatureMethod(r)
	if err != nil {
		return Consumer{}, nil, err
	}

	if err := method.Verify(ctx, r, consumer, token, r.Parameter(ParamSignature)); err != nil {
		return Consumer{}, nil, err
	}

	return consumer, token, nil
}

// checkVersion accepts a missing oauth_version as "1.0".
func checkVersion(r *Request) error {
	version := r.Parameter(ParamVersion)
	if version == "" {
		version = Version
	}

	if version != Version {
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, version)
	}

	return nil
}

func (s *Server) lookupConsumer(ctx context.Context, r *Request) (Consumer, error) {
	key := r.Parameter(ParamConsumerKey)
	if key == "" {
		return Consumer{}, fmt.Errorf("%w: missing consumer key", ErrInvalidConsumer)
	}

	consumer, err := s.consumers.LookupConsumer(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Consumer{}, fmt.Errorf("%w: %s", ErrInvalidConsumer, key)
	}

	if err != nil {
		return Consumer{}, fmt.Errorf("oauth1: consumer lookup: %w", err)
	}

	return consumer, nil
}

func (s *Server) lookupToken(ctx context.Context, r *Request, consumer Consumer, kind TokenKind) (*Token, error) {
	if s.tokens == nil {
		return nil, ErrNoTokenLookup
	}

	key := r.Parameter(ParamToken)
	if key == "" {
		return nil, fmt.Errorf("%w: missing %s token", ErrInvalidToken, kind)
	}

	token, err := s.tokens.LookupToken(ctx, consumer, kind, key)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s token %s", ErrInvalidToken, kind, key)
	}

	if err != nil {
		return nil, fmt.Errorf("oauth1: token lookup: %w", err)
	}

	if token.Kind != TokenNone && token.Kind != kind {
		return nil, fmt.Errorf("%w: %s is not a %s token", ErrInvalidToken, key, kind)
	}

	return &token, nil
}

// checkTimestamp accepts |now - timestamp| <= threshold.
func (s *Server) checkTimestamp(r *Request) (int64, error) {
	raw := r.Parameter(ParamTimestamp)
	if raw == "" {
		return 0, ErrMissingTimestamp
	}

	timestamp, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid timestamp %q", ErrMalformedRequest, raw)
	}

	now := s.clock().Unix()
	if timestamp < now-s.threshold || timestamp > now+s.threshold {
		return 0, fmt.Errorf("%w: yours %d, ours %d", ErrExpiredTimestamp, timestamp, now)
	}

	return timestamp, nil
}

func (s *Server) checkNonce(ctx context.Context, r *Request, consumer Consumer, token *Token, timestamp int64) error {
	nonce := r.Parameter(ParamNonce)
	if nonce == "" {
		return ErrMissingNonce
	}

	fresh, err := s.nonces.CheckAndRecord(ctx, consumer, token, nonce, timestamp)
	if err != nil {
		return fmt.Errorf("oauth1: nonce store: %w", err)
	}

	if !fresh {
		return fmt.Errorf("%w: %s", ErrNonceReplayed, nonce)
	}

	return nil
}

func (s *Server) signatureMethod(r *Request) (SignatureMethod, error) {
	name := r.Parameter(ParamSignatureMethod)
	if name == "" {
		return nil, fmt.Errorf("%w: missing signature method", ErrUnsupportedSignatureMethod)
	}

	s.mu.RLock()
	method, ok := s.methods[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSignatureMethod, name)
	}

	return method, nil
}
