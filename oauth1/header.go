package oauth1

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"slices"
	"strings"
)

// authScheme is the Authorization header scheme for OAuth 1.0a.
const authScheme = "OAuth"

// AuthorizationHeader returns the Authorization header value carrying every
// parameter whose name starts with "oauth". Names and values are encoded
// and values quoted. An optional realm is emitted first.
//
// It returns ErrInvalidHeaderParameter when an oauth parameter has more
// than one value.
func (r *Request) AuthorizationHeader(realm string) (string, error) {
	var b strings.Builder
	b.WriteString(authScheme)

	first := true
	if realm != "" {
		fmt.Fprintf(&b, " realm=%q", Encode(realm))
		first = false
	}

	names := make([]string, 0, len(r.params))
	for name := range r.params {
		if strings.HasPrefix(name, "oauth") {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	for _, name := range names {
		values := r.params[name]
		if len(values) > 1 {
			return "", fmt.Errorf("%w: %s", ErrInvalidHeaderParameter, name)
		}

		value := ""
		if len(values) == 1 {
			value = values[0]
		}

		if first {
			b.WriteByte(' ')
			first = false
		} else {
			b.WriteByte(',')
		}

		b.WriteString(Encode(name))
		b.WriteString(`="`)
		b.WriteString(Encode(value))
		b.WriteByte('"')
	}

	return b.String(), nil
}

// ToHeader returns the full "Authorization: OAuth ..." header line.
func (r *Request) ToHeader(realm string) (string, error) {
	value, err := r.AuthorizationHeader(realm)
	if err != nil {
		return "", err
	}

	return "Authorization: " + value, nil
}

// ParseAuthorizationHeader extracts the oauth_* parameters from an OAuth
// Authorization header value. The realm and any non-oauth parameter are
// dropped; values are percent-decoded.
func ParseAuthorizationHeader(value string) (Params, error) {
	value = strings.TrimSpace(value)

	scheme, rest, _ := strings.Cut(value, " ")
	if !strings.EqualFold(scheme, authScheme) {
		return nil, fmt.Errorf("%w: authorization scheme is not OAuth", ErrMalformedRequest)
	}

	params := Params{}

	for _, entry := range splitQuoteAware(rest, ',') {
		name, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("%w: header entry %q has no value", ErrMalformedRequest, entry)
		}

		name = strings.TrimSpace(name)
		if !strings.HasPrefix(name, "oauth_") {
			continue
		}

		decoded, err := Decode(unquote(strings.TrimSpace(raw)))
		if err != nil {
			return nil, err
		}

		params.Set(name, decoded)
	}

	return params, nil
}

// FromHTTPRequest rebuilds a Request from an inbound HTTP request. The
// parameter bag is assembled from the URL query, then a form-encoded POST
// body, then the OAuth Authorization header; each later source overrides
// names from earlier ones. Only POST, PUT and PATCH bodies are read. The
// body is restored for downstream handlers.
func FromHTTPRequest(r *http.Request) (*Request, error) {
	rawURL := requestScheme(r) + "://" + requestHost(r) + r.URL.EscapedPath()

	params, err := ParseQuery(r.URL.RawQuery)
	if err != nil {
		return nil, err
	}

	if hasFormBody(r) {
		body, err := readAndRestoreBody(r)
		if err != nil {
			return nil, fmt.Errorf("%w: read body: %v", ErrMalformedRequest, err)
		}

		form, err := ParseQuery(string(body))
		if err != nil {
			return nil, err
		}

		params.merge(form)
	}

	if auth := r.Header.Get("Authorization"); hasOAuthScheme(auth) {
		header, err := ParseAuthorizationHeader(auth)
		if err != nil {
			return nil, err
		}

		params.merge(header)
	}

	return NewRequest(r.Method, rawURL, params)
}

// requestScheme returns the scheme the request was received on.
func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}

	if r.URL != nil && r.URL.Scheme != "" {
		return strings.ToLower(r.URL.Scheme)
	}

	return "http"
}

// requestHost returns host[:port] as sent by the client.
func requestHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}

	if r.URL != nil {
		return r.URL.Host
	}

	return ""
}

func hasOAuthScheme(header string) bool {
	return len(header) > len(authScheme) &&
		strings.EqualFold(header[:len(authScheme)], authScheme) &&
		header[len(authScheme)] == ' '
}

// hasFormBody reports whether r carries form parameters that take part in
// the signature: a POST, PUT or PATCH with a form-encoded body.
func hasFormBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return isFormEncoded(r.Header.Get("Content-Type"))
	default:
		return false
	}
}

func isFormEncoded(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == "application/x-www-form-urlencoded"
}

// readAndRestoreBody reads the entire request body and replaces it with a
// new reader so the body can be consumed again by downstream handlers.
func readAndRestoreBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	return body, nil
}

// splitQuoteAware splits s on delim while respecting "..." quoted regions.
// Each resulting part is trimmed of whitespace and empty parts are skipped.
func splitQuoteAware(s string, delim byte) []string {
	var result []string
	var part strings.Builder
	inQuote := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if ch == '"' {
			inQuote = !inQuote
			part.WriteByte(ch)
			continue
		}

		if ch == delim && !inQuote {
			if p := strings.TrimSpace(part.String()); p != "" {
				result = append(result, p)
			}

			part.Reset()
			continue
		}

		part.WriteByte(ch)
	}

	if p := strings.TrimSpace(part.String()); p != "" {
		result = append(result, p)
	}

	return result
}

// unquote removes surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}

	return s
}
