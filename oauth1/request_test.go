package oauth1

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	t.Run("query merged and stripped", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/Contacts?page=2&where=x#frag", nil)
		require.NoError(t, err)

		assert.Equal(t, "https://api.example.com/Contacts", r.NormalizedURL())
		assert.Equal(t, "2", r.Parameter("page"))
		assert.Equal(t, "x", r.Parameter("where"))
	})

	t.Run("explicit params win over query", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/?a=query&b=keep", Params{"a": {"explicit"}})
		require.NoError(t, err)

		assert.Equal(t, "explicit", r.Parameter("a"))
		assert.Equal(t, "keep", r.Parameter("b"))
	})

	t.Run("params are copied", func(t *testing.T) {
		params := Params{"a": {"1"}}

		r, err := NewRequest("GET", "https://api.example.com/", params)
		require.NoError(t, err)

		params.Add("a", "2")
		assert.Equal(t, []string{"1"}, r.Parameters()["a"])
	})

	t.Run("relative url rejected", func(t *testing.T) {
		_, err := NewRequest("GET", "/Contacts", nil)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})

	t.Run("unparsable url rejected", func(t *testing.T) {
		_, err := NewRequest("GET", "https://api.example.com/%zz", nil)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})

	t.Run("invalid query rejected", func(t *testing.T) {
		_, err := NewRequest("GET", "https://api.example.com/?a=%zz", nil)
		assert.ErrorIs(t, err, ErrMalformedRequest)
	})
}

func TestNormalizedURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://api.example.com/Contacts", "https://api.example.com/Contacts"},
		{"https://api.example.com:443/Contacts", "https://api.example.com/Contacts"},
		{"https://api.example.com:8443/Contacts", "https://api.example.com:8443/Contacts"},
		{"http://api.example.com:80/a", "http://api.example.com/a"},
		{"http://api.example.com:443/a", "http://api.example.com:443/a"},
		{"https://api.example.com:80/a", "https://api.example.com:80/a"},
		{"HTTPS://API.Example.com/Path", "https://API.Example.com/Path"},
		{"https://api.example.com", "https://api.example.com"},
		{"https://[::1]:8443/x", "https://[::1]:8443/x"},
		{"https://api.example.com/a%20b", "https://api.example.com/a%20b"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r, err := NewRequest("GET", tt.raw, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.NormalizedURL())
		})
	}
}

func TestBaseString(t *testing.T) {
	t.Run("reference vector", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/Contacts", Params{
			ParamConsumerKey: {"K"},
			ParamNonce:       {"N"},
			ParamTimestamp:   {"1700000000"},
			ParamVersion:     {"1.0"},
		})
		require.NoError(t, err)

		assert.Equal(t,
			"GET&https%3A%2F%2Fapi.example.com%2FContacts&oauth_consumer_key%3DK%26oauth_nonce%3DN%26oauth_timestamp%3D1700000000%26oauth_version%3D1.0",
			r.BaseString())
	})

	t.Run("method upper-cased", func(t *testing.T) {
		r, err := NewRequest("post", "https://api.example.com/", nil)
		require.NoError(t, err)

		assert.Equal(t, "POST", r.Method())
		assert.Equal(t, "POST&https%3A%2F%2Fapi.example.com%2F&", r.BaseString())
	})

	t.Run("signature excluded", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{
			"a":            {"1"},
			ParamSignature: {"sig"},
		})
		require.NoError(t, err)

		assert.Equal(t, "GET&https%3A%2F%2Fapi.example.com%2F&a%3D1", r.BaseString())
	})

	t.Run("values double encoded", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", Params{"q": {"a b"}})
		require.NoError(t, err)

		assert.Equal(t, "GET&https%3A%2F%2Fapi.example.com%2F&q%3Da%2520b", r.BaseString())
	})

	t.Run("reflects mutation", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", nil)
		require.NoError(t, err)

		before := r.BaseString()
		require.NoError(t, r.SetParameter("x", "1", false))
		assert.NotEqual(t, before, r.BaseString())
	})
}

func TestRequestParameters(t *testing.T) {
	r, err := NewRequest("GET", "https://api.example.com/", nil)
	require.NoError(t, err)

	require.NoError(t, r.SetParameter("a", "1", false))
	require.NoError(t, r.SetParameter("a", "2", true))
	assert.Equal(t, []string{"1", "2"}, r.Parameters()["a"])

	require.NoError(t, r.SetParameter("a", "3", false))
	assert.Equal(t, []string{"3"}, r.Parameters()["a"])

	require.NoError(t, r.SetParameter("b", "x", true))
	assert.Equal(t, []string{"x"}, r.Parameters()["b"])

	require.NoError(t, r.UnsetParameter("a"))
	assert.Equal(t, "", r.Parameter("a"))

	got := r.Parameters()
	got.Set("b", "changed")
	assert.Equal(t, "x", r.Parameter("b"))
}

func TestNewRequestFromConsumer(t *testing.T) {
	consumer := Consumer{Key: "ck", Secret: "cs"}
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	nonce := func() (string, error) { return "fixed-nonce", nil }

	t.Run("defaults", func(t *testing.T) {
		r, err := NewRequestFromConsumer(consumer, &Token{Key: "tk"}, "GET", "https://api.example.com/", nil,
			WithClock(clock), WithNonceFunc(nonce))
		require.NoError(t, err)

		assert.Equal(t, "1.0", r.Parameter(ParamVersion))
		assert.Equal(t, "fixed-nonce", r.Parameter(ParamNonce))
		assert.Equal(t, "1700000000", r.Parameter(ParamTimestamp))
		assert.Equal(t, "ck", r.Parameter(ParamConsumerKey))
		assert.Equal(t, "tk", r.Parameter(ParamToken))
	})

	t.Run("no token parameter without token", func(t *testing.T) {
		for _, token := range []*Token{nil, {}} {
			r, err := NewRequestFromConsumer(consumer, token, "GET", "https://api.example.com/", nil)
			require.NoError(t, err)
			assert.False(t, r.Parameters().Has(ParamToken))
		}
	})

	t.Run("params override defaults", func(t *testing.T) {
		r, err := NewRequestFromConsumer(consumer, nil, "GET", "https://api.example.com/", Params{
			ParamNonce: {"mine"},
		}, WithNonceFunc(nonce))
		require.NoError(t, err)

		assert.Equal(t, "mine", r.Parameter(ParamNonce))
	})

	t.Run("generated nonce", func(t *testing.T) {
		r1, err := NewRequestFromConsumer(consumer, nil, "GET", "https://api.example.com/", nil)
		require.NoError(t, err)

		r2, err := NewRequestFromConsumer(consumer, nil, "GET", "https://api.example.com/", nil)
		require.NoError(t, err)

		assert.Len(t, r1.Parameter(ParamNonce), 32)
		assert.NotEqual(t, r1.Parameter(ParamNonce), r2.Parameter(ParamNonce))
	})

	t.Run("nonce failure", func(t *testing.T) {
		boom := errors.New("no entropy")

		_, err := NewRequestFromConsumer(consumer, nil, "GET", "https://api.example.com/", nil,
			WithNonceFunc(func() (string, error) { return "", boom }))
		assert.ErrorIs(t, err, boom)
	})
}

func TestRequestSingleUse(t *testing.T) {
	ctx := context.Background()
	consumer := Consumer{Key: "ck", Secret: "cs"}

	r, err := NewRequestFromConsumer(consumer, nil, "GET", "https://api.example.com/", nil)
	require.NoError(t, err)

	assert.False(t, r.Signed())
	require.NoError(t, r.Sign(ctx, HMACSHA1{}, consumer, nil))
	assert.True(t, r.Signed())

	assert.ErrorIs(t, r.SetParameter("a", "1", false), ErrRequestSigned)
	assert.ErrorIs(t, r.UnsetParameter(ParamNonce), ErrRequestSigned)
	assert.ErrorIs(t, r.Sign(ctx, HMACSHA1{}, consumer, nil), ErrRequestSigned)

	t.Run("nil method", func(t *testing.T) {
		r, err := NewRequest("GET", "https://api.example.com/", nil)
		require.NoError(t, err)

		assert.ErrorIs(t, r.Sign(ctx, nil, consumer, nil), ErrUnsupportedSignatureMethod)
		assert.False(t, r.Signed())
	})
}

func TestRequestSerialization(t *testing.T) {
	r, err := NewRequest("GET", "https://api.example.com/Contacts", Params{
		"b": {"2"},
		"a": {"x y"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a=x%20y&b=2", r.ToPostData())
	assert.Equal(t, "https://api.example.com/Contacts?a=x%20y&b=2", r.ToURL())
	assert.Equal(t, r.ToURL(), r.String())

	empty, err := NewRequest("GET", "https://api.example.com/Contacts", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/Contacts", empty.ToURL())
	assert.Equal(t, "", empty.ToPostData())
}
