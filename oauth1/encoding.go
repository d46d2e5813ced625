package oauth1

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// Params is an OAuth parameter bag. A name may carry several values;
// duplicates are preserved rather than overwritten.
type Params map[string][]string

// Get returns the first value for name, or "" when absent.
func (p Params) Get(name string) string {
	vs := p[name]
	if len(vs) == 0 {
		return ""
	}

	return vs[0]
}

// Has reports whether name is present.
func (p Params) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Set replaces any values for name with value.
func (p Params) Set(name, value string) {
	p[name] = []string{value}
}

// Add appends value to the values for name.
func (p Params) Add(name, value string) {
	p[name] = append(p[name], value)
}

// Del removes name.
func (p Params) Del(name string) {
	delete(p, name)
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, vs := range p {
		out[k] = slices.Clone(vs)
	}

	return out
}

// merge copies every name of src into p, replacing existing values.
func (p Params) merge(src Params) {
	for k, vs := range src {
		p[k] = slices.Clone(vs)
	}
}

// Encode percent-encodes value per RFC 3986, leaving only the unreserved
// characters A-Z a-z 0-9 - . _ ~ as is.
//
// Query escaping produces "+" for a space; that is rewritten to "%20" and
// any "%7E" is turned back into "~", which yields the exact bytes the
// signature base string requires.
func Encode(value string) string {
	escaped := url.QueryEscape(value)
	escaped = strings.ReplaceAll(escaped, "+", "%20")

	return strings.ReplaceAll(escaped, "%7E", "~")
}

// Decode reverses percent-encoding. A "+" decodes to a space.
func Decode(value string) (string, error) {
	decoded, err := url.QueryUnescape(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}

	return decoded, nil
}

type pair struct {
	name  string
	value string
}

// CanonicalQuery serializes params in OAuth normalized form. Names and
// values are encoded first, pairs are ordered by encoded name in byte order
// and values sharing a name are ordered by natural (numeric-aware) order.
// An empty bag yields "".
func CanonicalQuery(params Params) string {
	if len(params) == 0 {
		return ""
	}

	pairs := make([]pair, 0, len(params))
	for name, values := range params {
		encName := Encode(name)
		for _, v := range values {
			pairs = append(pairs, pair{name: encName, value: Encode(v)})
		}
	}

	slices.SortFunc(pairs, func(a, b pair) int {
		if c := strings.Compare(a.name, b.name); c != 0 {
			return c
		}

		switch {
		case natural.Less(a.value, b.value):
			return -1
		case natural.Less(b.value, a.value):
			return 1
		default:
			return 0
		}
	})

	var b strings.Builder
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(p.name)
		b.WriteByte('=')
		b.WriteString(p.value)
	}

	return b.String()
}

// ParseQuery parses an a=b&a=c&d=e style string. Repeated names
// accumulate; a pair without "=" has an empty value.
func ParseQuery(raw string) (Params, error) {
	params := Params{}
	if raw == "" {
		return params, nil
	}

	for _, segment := range strings.Split(raw, "&") {
		if segment == "" {
			continue
		}

		rawName, rawValue, _ := strings.Cut(segment, "=")

		name, err := Decode(rawName)
		if err != nil {
			return nil, err
		}

		value, err := Decode(rawValue)
		if err != nil {
			return nil, err
		}

		params.Add(name, value)
	}

	return params, nil
}
