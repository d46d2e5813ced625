package oauth1

import (
	"net/url"
	"strings"
)

// Default ports per scheme. A port equal to the default is omitted from
// the normalized URL.
const (
	defaultHTTPPort  = "80"
	defaultHTTPSPort = "443"
)

// normalizeURL reduces u to scheme://host[:port]path. The port is kept
// only when it is explicit and not the default for the scheme. Host case
// is preserved.
func normalizeURL(u *url.URL) string {
	host := u.Hostname()
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	port := u.Port()
	switch {
	case port == "":
	case u.Scheme == "https" && port != defaultHTTPSPort:
		host += ":" + port
	case u.Scheme == "http" && port != defaultHTTPPort:
		host += ":" + port
	}

	return u.Scheme + "://" + host + u.EscapedPath()
}

// signableParams returns a snapshot of params without oauth_signature.
func signableParams(params Params) Params {
	out := params.Clone()
	out.Del(ParamSignature)

	return out
}

// buildBaseString joins the encoded method, URL and parameter string with
// "&". Each part is encoded as a whole, so the "&" and "=" inside the
// parameter string end up escaped.
func buildBaseString(method, normalizedURL string, params Params) string {
	parts := []string{
		Encode(strings.ToUpper(method)),
		Encode(normalizedURL),
		Encode(CanonicalQuery(signableParams(params))),
	}

	return strings.Join(parts, "&")
}
