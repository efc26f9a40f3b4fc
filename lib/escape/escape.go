package escape

import (
	"fmt"
	"net/url"
	"strings"
)

// Escaper selects the escaping rules.
type Escaper uint8

const (
	// EscaperURI follows www-form component encoding: "*" is kept, "~" is encoded
	EscaperURI Escaper = iota
	// EscaperCGI follows cgi encoding: "~" is kept, "*" is encoded
	EscaperCGI
)

// String returns the name of the escaper as accepted by ParseEscaper.
func (e Escaper) String() string {
	switch e {
	case EscaperURI:
		return "uri"
	case EscaperCGI:
		return "cgi"
	default:
		return "unknown"
	}
}

// ParseEscaper parses an escaper name ("uri" or "cgi", case insensitive).
func ParseEscaper(name string) (Escaper, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "uri":
		return EscaperURI, nil
	case "cgi":
		return EscaperCGI, nil
	default:
		return 0, fmt.Errorf("unknown escaper %q (expected uri or cgi)", name)
	}
}

// Config controls how bucket and key names are escaped.
// The zero value uses EscaperURI without url decoding.
type Config struct {
	Escaper Escaper
	// URLDecoding is set if the server decodes url encoded names before storing them
	URLDecoding bool
}

var (
	uriReplacer = strings.NewReplacer("+", "%20", "%2A", "*", "~", "%7E")
	cgiReplacer = strings.NewReplacer("+", "%20")
)

// Escape escapes a bucket or key name for use as a single URL path segment.
func (c Config) Escape(name string) string {
	// QueryEscape already encodes "/" as %2F and a literal "+" as %2B,
	// so every remaining "+" stands for a space
	escaped := url.QueryEscape(name)
	if c.Escaper == EscaperURI {
		return uriReplacer.Replace(escaped)
	}
	return cgiReplacer.Replace(escaped)
}

// Unescape reverses Escape. "+" is decoded as a space for both escapers.
func (c Config) Unescape(segment string) (string, error) {
	name, err := url.QueryUnescape(segment)
	if err != nil {
		return "", fmt.Errorf("cannot unescape %q: %w", segment, err)
	}
	return name, nil
}

// MaybeEscape escapes the name unless the server decodes names itself.
func (c Config) MaybeEscape(name string) string {
	if c.URLDecoding {
		return name
	}
	return c.Escape(name)
}

// MaybeUnescape unescapes the segment unless the server decodes names itself.
func (c Config) MaybeUnescape(segment string) (string, error) {
	if c.URLDecoding {
		return segment, nil
	}
	return c.Unescape(segment)
}

// ObjectPath returns the legacy http path of an object, "/buckets/<bucket>/keys/<key>".
func (c Config) ObjectPath(bucket, key string) string {
	return "/buckets/" + c.Escape(bucket) + "/keys/" + c.Escape(key)
}

// IndexPath returns the legacy http path of an index query, either
// "/buckets/<bucket>/index/<index>/<term>" or ".../<start>/<end>" for ranges.
func (c Config) IndexPath(bucket, index string, terms ...string) string {
	var b strings.Builder
	b.WriteString("/buckets/")
	b.WriteString(c.Escape(bucket))
	b.WriteString("/index/")
	b.WriteString(c.Escape(index))
	for _, term := range terms {
		b.WriteByte('/')
		b.WriteString(c.Escape(term))
	}
	return b.String()
}
