package oauth1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// MiddlewareFunc wraps an http.Handler.
type MiddlewareFunc func(http.Handler) http.Handler

// MiddlewareConfig configures the server-side verification middleware.
type MiddlewareConfig struct {
	// Server verifies requests. Required.
	Server *Server

	// Kind is the token kind protected requests must carry. Defaults to
	// TokenAccess.
	Kind TokenKind

	// ConsumerOnly accepts requests that carry no token (two-legged
	// OAuth). Kind is ignored when set.
	ConsumerOnly bool

	// Realm is advertised in the WWW-Authenticate header of 401 responses.
	Realm string

	// OnError is called when verification fails. When nil, a JSON error
	// envelope with the mapped status code is written.
	OnError func(w http.ResponseWriter, r *http.Request, err error)
}

// Middleware returns a MiddlewareFunc that verifies OAuth signatures on
// incoming requests. On success the consumer and token are available via
// ConsumerFromContext and TokenFromContext.
//
// It returns ErrNoServer if cfg.Server is nil.
func Middleware(cfg MiddlewareConfig) (MiddlewareFunc, error) {
	if cfg.Server == nil {
		return nil, ErrNoServer
	}

	kind := cfg.Kind
	switch {
	case cfg.ConsumerOnly:
		kind = TokenNone
	case kind == TokenNone:
		kind = TokenAccess
	}

	onError := cfg.OnError
	if onError == nil {
		realm := cfg.Realm
		onError = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, realm, err)
		}
	}

	server := cfg.Server

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, err := FromHTTPRequest(r)
			if err != nil {
				onError(w, r, err)
				return
			}

			consumer, token, err := server.Verify(r.Context(), req, kind)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), consumerKey{}, consumer)
			if token != nil {
				ctx = context.WithValue(ctx, tokenKey{}, *token)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}, nil
}

type consumerKey struct{}

type tokenKey struct{}

// ConsumerFromContext returns the consumer stored by Middleware.
func ConsumerFromContext(ctx context.Context) (Consumer, bool) {
	c, ok := ctx.Value(consumerKey{}).(Consumer)
	return c, ok
}

// TokenFromContext returns the token stored by Middleware. It is absent
// for consumer-only requests.
func TokenFromContext(ctx context.Context) (Token, bool) {
	t, ok := ctx.Value(tokenKey{}).(Token)
	return t, ok
}

// RequestTokenHandler serves the temporary credential endpoint. It answers
// with oauth_token and oauth_token_secret form-encoded.
func RequestTokenHandler(s *Server) http.Handler {
	return tokenHandler(s.FetchRequestToken)
}

// AccessTokenHandler serves the token credential endpoint.
func AccessTokenHandler(s *Server) http.Handler {
	return tokenHandler(s.FetchAccessToken)
}

func tokenHandler(fetch func(context.Context, *Request) (Token, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := FromHTTPRequest(r)
		if err != nil {
			writeError(w, "", err)
			return
		}

		token, err := fetch(r.Context(), req)
		if err != nil {
			writeError(w, "", err)
			return
		}

		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, token.String())
	})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code     int    `json:"code"`
	TextCode string `json:"text_code"`
	Message  string `json:"message"`
}

// writeError writes the JSON error envelope for err. 401 responses carry
// a WWW-Authenticate challenge.
func writeError(w http.ResponseWriter, realm string, err error) {
	env := ErrorEnvelope(err)

	if env.Code == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("%s realm=%q", authScheme, realm))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Code)

	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{
		Code:     env.Code,
		TextCode: env.TextCode,
		Message:  env.Message,
	}})
}
