package oauth1

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizationHeader(t *testing.T) {
	t.Run("oauth parameters sorted and quoted", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{
			ParamNonce:       {"N"},
			ParamConsumerKey: {"K"},
			ParamSignature:   {"a+b/c="},
			"page":           {"2"},
		})
		require.NoError(t, err)

		got, err := r.AuthorizationHeader("")
		require.NoError(t, err)
		assert.Equal(t, `OAuth oauth_consumer_key="K",oauth_nonce="N",oauth_signature="a%2Bb%2Fc%3D"`, got)
	})

	t.Run("realm first", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{ParamConsumerKey: {"K"}})
		require.NoError(t, err)

		got, err := r.AuthorizationHeader("https://api.example.com/")
		require.NoError(t, err)
		assert.Equal(t, `OAuth realm="https%3A%2F%2Fapi.example.com%2F",oauth_consumer_key="K"`, got)
	})

	t.Run("realm only", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", nil)
		require.NoError(t, err)

		got, err := r.AuthorizationHeader("x")
		require.NoError(t, err)
		assert.Equal(t, `OAuth realm="x"`, got)
	})

	t.Run("multi-valued oauth parameter", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{ParamNonce: {"a", "b"}})
		require.NoError(t, err)

		_, err = r.AuthorizationHeader("")
		assert.ErrorIs(t, err, ErrInvalidHeaderParameter)

		_, err = r.ToHeader("")
		assert.ErrorIs(t, err, ErrInvalidHeaderParameter)
	})

	t.Run("multi-valued non-oauth parameter ignored", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{"tag": {"a", "b"}})
		require.NoError(t, err)

		got, err := r.AuthorizationHeader("")
		require.NoError(t, err)
		assert.Equal(t, "OAuth", got)
	})

	t.Run("to header line", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{ParamConsumerKey: {"K"}})
		require.NoError(t, err)

		got, err := r.ToHeader("")
		require.NoError(t, err)
		assert.Equal(t, `Authorization: OAuth oauth_consumer_key="K"`, got)
	})
}

func TestParseAuthorizationHeader(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{
			ParamConsumerKey: {"K"},
			ParamSignature:   {"a+b/c="},
			ParamCallback:    {"https://app.example/cb?x=1"},
		})
		require.NoError(t, err)

		header, err := r.AuthorizationHeader("realm")
		require.NoError(t, err)

		got, err := ParseAuthorizationHeader(header)
		require.NoError(t, err)
		assert.Equal(t, Params{
			ParamConsumerKey: {"K"},
			ParamSignature:   {"a+b/c="},
			ParamCallback:    {"https://app.example/cb?x=1"},
		}, got)
	})

	t.Run("whitespace and case tolerant", func(t *testing.T) {
		got, err := ParseAuthorizationHeader(`oauth  realm="r", oauth_token="t" ,  oauth_nonce="n"`)
		require.NoError(t, err)
		assert.Equal(t, Params{ParamToken: {"t"}, ParamNonce: {"n"}}, got)
	})

	t.Run("quoted comma", func(t *testing.T) {
		got, err := ParseAuthorizationHeader(`OAuth oauth_callback="a,b",oauth_nonce="n"`)
		require.NoError(t, err)
		assert.Equal(t, "a,b", got.Get(ParamCallback))
	})

	t.Run("wrong scheme", func(t *testing.T) {
		_, err := ParseAuthorizationHeader(`Bearer abc`)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})

	t.Run("entry without value", func(t *testing.T) {
		_, err := ParseAuthorizationHeader(`OAuth oauth_nonce`)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})

	t.Run("bad escape", func(t *testing.T) {
		_, err := ParseAuthorizationHeader(`OAuth oauth_nonce="%zz"`)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})
}

func TestFromHTTPRequest(t *testing.T) {
	t.Run("query, form body and header merged", func(t *testing.T) {
		body := "a=body&b=body"
		req := httptest.NewRequest(http.MethodPost, "http://api.example.com:8080/path?a=query&q=1", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")
		req.Header.Set("Authorization", `OAuth realm="r",oauth_consumer_key="K",oauth_nonce="N"`)

		r, err := FromHTTPRequest(req)
		require.NoError(t, err)

		assert.Equal(t, "POST", r.Method())
		assert.Equal(t, "http://api.example.com:8080/path", r.NormalizedURL())
		assert.Equal(t, "body", r.Parameter("a"))
		assert.Equal(t, "body", r.Parameter("b"))
		assert.Equal(t, "1", r.Parameter("q"))
		assert.Equal(t, "K", r.Parameter(ParamConsumerKey))
		assert.Equal(t, "N", r.Parameter(ParamNonce))
		assert.False(t, r.Parameters().Has("realm"))

		restored, err := io.ReadAll(req.Body)
		require.NoError(t, err)
		assert.Equal(t, body, string(restored))
	})

	t.Run("header overrides query", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://api.example.com/?oauth_nonce=q", nil)
		req.Header.Set("Authorization", `OAuth oauth_nonce="h"`)

		r, err := FromHTTPRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "h", r.Parameter(ParamNonce))
	})

	t.Run("json body ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "http://api.example.com/", strings.NewReader(`{"a":"b"}`))
		req.Header.Set("Content-Type", "application/json")

		r, err := FromHTTPRequest(req)
		require.NoError(t, err)
		assert.Empty(t, r.Parameters())
	})

	t.Run("get body ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://api.example.com/", strings.NewReader("a=b"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		r, err := FromHTTPRequest(req)
		require.NoError(t, err)
		assert.Empty(t, r.Parameters())
	})

	t.Run("tls means https", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "https://api.example.com:443/x", nil)

		r, err := FromHTTPRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.com/x", r.NormalizedURL())
	})

	t.Run("non-oauth authorization ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://api.example.com/", nil)
		req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")

		r, err := FromHTTPRequest(req)
		require.NoError(t, err)
		assert.Empty(t, r.Parameters())
	})

	t.Run("malformed oauth header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://api.example.com/", nil)
		req.Header.Set("Authorization", "OAuth oauth_nonce")

		_, err := FromHTTPRequest(req)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})
}
