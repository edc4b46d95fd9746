package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/andybalholm/brotli"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var charsetPattern = regexp.MustCompile(`(?i)charset=["']?([a-z0-9_-]+)`)

// Labels htmlindex does not know but upstream sites and configs use.
var charsetAliases = map[string]encoding.Encoding{
	"win1251":  charmap.Windows1251,
	"cp1251":   charmap.Windows1251,
	"win-1251": charmap.Windows1251,
}

// Decompress undoes Content-Encoding. Encodings are applied in header order,
// so they are removed in reverse. Any failure returns body unchanged.
func Decompress(body []byte, contentEncoding string) []byte {
	parts := strings.Split(strings.ToLower(contentEncoding), ",")
	out := body
	for i := len(parts) - 1; i >= 0; i-- {
		enc := strings.TrimSpace(parts[i])
		if enc == "" || enc == "identity" {
			continue
		}
		decoded, err := decompressOne(out, enc)
		if err != nil {
			return body
		}
		out = decoded
	}
	return out
}

func decompressOne(body []byte, enc string) ([]byte, error) {
	switch enc {
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		if r, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer r.Close()
			if out, readErr := io.ReadAll(r); readErr == nil {
				return out, nil
			}
		}
		r := flate.NewReader(bytes.NewReader(body))
		defer r.Close()
		return io.ReadAll(r)
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	default:
		return body, nil
	}
}

// CharsetFromContentType returns the lowercased charset parameter, if any.
func CharsetFromContentType(contentType string) string {
	m := charsetPattern.FindStringSubmatch(contentType)
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// DecodeText converts body to UTF-8. The charset from the Content-Type header
// wins, then fallback, then UTF-8. Unknown charsets decode as UTF-8.
func DecodeText(body []byte, contentType, fallback string) string {
	charset := CharsetFromContentType(contentType)
	if charset == "" {
		charset = strings.ToLower(strings.TrimSpace(fallback))
	}

	enc := lookupEncoding(charset)
	if enc == nil {
		return toUTF8(body)
	}

	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return toUTF8(body)
	}
	return string(out)
}

func lookupEncoding(charset string) encoding.Encoding {
	switch charset {
	case "", "utf-8", "utf8":
		return nil
	}
	if enc, ok := charsetAliases[charset]; ok {
		return enc
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil
	}
	return enc
}

func toUTF8(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	return strings.ToValidUTF8(string(body), "\uFFFD")
}
