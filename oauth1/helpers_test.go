package oauth1

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/stretchr/testify/require"
)

type fakeConsumers map[string]Consumer

func (f fakeConsumers) LookupConsumer(_ context.Context, key string) (Consumer, error) {
	c, ok := f[key]
	if !ok {
		return Consumer{}, ErrNotFound
	}

	return c, nil
}

type fakeTokens map[string]Token

func (f fakeTokens) LookupToken(_ context.Context, _ Consumer, kind TokenKind, key string) (Token, error) {
	t, ok := f[key]
	if !ok || t.Kind != kind {
		return Token{}, ErrNotFound
	}

	return t, nil
}

type fakeNonces struct {
	mu    sync.Mutex
	seen  map[string]struct{}
	calls int
}

func newFakeNonces() *fakeNonces {
	return &fakeNonces{seen: map[string]struct{}{}}
}

func (f *fakeNonces) CheckAndRecord(_ context.Context, consumer Consumer, token *Token, nonce string, timestamp int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++

	tokenKey := ""
	if token != nil {
		tokenKey = token.Key
	}

	key := fmt.Sprintf("%s|%s|%s|%d", consumer.Key, tokenKey, nonce, timestamp)
	if _, ok := f.seen[key]; ok {
		return false, nil
	}

	f.seen[key] = struct{}{}

	return true, nil
}

type fakeIssuer struct {
	verifier string
}

func (f fakeIssuer) NewRequestToken(_ context.Context, _ Consumer, callback string) (Token, error) {
	return Token{Key: "rt-" + callback, Secret: "rts", Kind: TokenRequest}, nil
}

func (f fakeIssuer) NewAccessToken(_ context.Context, _ Consumer, requestToken Token, verifier string) (Token, error) {
	if verifier != f.verifier {
		return Token{}, ErrInvalidToken
	}

	return Token{Key: "at-from-" + requestToken.Key, Secret: "ats", Kind: TokenAccess}, nil
}

type logCall struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.calls = append(l.calls, logCall{level: level, msg: msg, args: append([]any(nil), args...)})
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args) }

func (l *captureLogger) WithContext(context.Context) glog.Logger {
	return l
}

func (l *captureLogger) last() logCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.calls) == 0 {
		return logCall{}
	}

	return l.calls[len(l.calls)-1]
}

var _ glog.Logger = (*captureLogger)(nil)

type rsaFixture struct {
	key        *rsa.PrivateKey
	privatePEM []byte
	publicPEM  []byte
	certPEM    []byte
}

func newRSAFixture(t *testing.T) rsaFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "consumer"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	certDER, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return rsaFixture{
		key:        key,
		privatePEM: pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
		publicPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}),
		certPEM:    pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
	}
}
