package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decoder returns the encoding for a charset name. Accepted names are
// utf-8, windows-1251 (cp1251) and koi8-u; the empty name means utf-8.
func Decoder(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "windows-1251", "cp1251", "win1251":
		return charmap.Windows1251, nil
	case "koi8-u", "koi8u":
		return charmap.KOI8U, nil
	}
	return nil, fmt.Errorf("unsupported charset %q (want utf-8, windows-1251 or koi8-u)", name)
}

// NewReader wraps r so it yields UTF-8 text. A leading UTF-8 byte order mark
// is dropped.
func NewReader(r io.Reader, charset string) (io.Reader, error) {
	enc, err := Decoder(charset)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder()), nil
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// DecodeString converts text in charset to UTF-8.
func DecodeString(s, charset string) (string, error) {
	rd, err := NewReader(strings.NewReader(s), charset)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", charset, err)
	}
	return string(b), nil
}
