package backend

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrURLMalformed flags a backend URL the bootstrap cannot use.
var ErrURLMalformed = errors.New("malformed backend URL")

// Parts is a backend URL broken into its pieces. Auth keeps the raw
// user:pass credentials; they are base64-encoded only when the request
// header is written.
type Parts struct {
	Host  string
	Path  string // without the leading slash
	Query string // without the question mark
	Auth  string // user:pass, empty when the URL carries none
	HTTPS bool
	Port  uint16
}

// SplitURL breaks a backend URL into host, path, query and credentials.
// Only http and https are accepted; the port defaults per scheme. The query
// is cut at the first question mark wherever it falls, so a URL with the
// connection query already appended decomposes the same way.
func SplitURL(raw string) (Parts, error) {
	var p Parts
	var rest string
	switch {
	case strings.HasPrefix(raw, "http://"):
		rest = raw[len("http://"):]
		p.Port = 80
	case strings.HasPrefix(raw, "https://"):
		rest = raw[len("https://"):]
		p.HTTPS = true
		p.Port = 443
	default:
		return Parts{}, fmt.Errorf("%w: unsupported scheme in %q", ErrURLMalformed, raw)
	}

	if i := strings.IndexByte(rest, '?'); i >= 0 {
		p.Query = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		p.Path = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '@'); i >= 0 {
		p.Auth = rest[:i]
		rest = rest[i+1:]
	}
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		port, err := strconv.ParseUint(rest[i+1:], 10, 16)
		if err != nil || port == 0 {
			return Parts{}, fmt.Errorf("%w: bad port in %q", ErrURLMalformed, raw)
		}
		p.Port = uint16(port)
		rest = rest[:i]
	}
	if rest == "" {
		return Parts{}, fmt.Errorf("%w: empty host in %q", ErrURLMalformed, raw)
	}
	p.Host = rest
	return p, nil
}
