// Package textenc converts extracted UTF-8 text to the configured output
// encoding and decodes labelled input text to UTF-8.
package textenc

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// Default is the output encoding used when none is configured.
const Default = "utf-8"

// Lookup resolves a WHATWG encoding label ("latin1", "UTF8", "windows-1252")
// and returns the encoding with its canonical name.
func Lookup(label string) (encoding.Encoding, string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = Default
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}
	return enc, name, nil
}

// Encode converts s to the named encoding. Characters the target cannot
// represent become numeric character references when markup is true, and the
// encoding's replacement byte otherwise.
func Encode(s, label string, markup bool) ([]byte, error) {
	enc, _, err := Lookup(label)
	if err != nil {
		return nil, err
	}
	if enc == unicode.UTF8 {
		return []byte(s), nil
	}
	var e *encoding.Encoder
	if markup {
		e = encoding.HTMLEscapeUnsupported(enc.NewEncoder())
	} else {
		e = encoding.ReplaceUnsupported(enc.NewEncoder())
	}
	out, err := e.Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", label, err)
	}
	return out, nil
}

// Decode converts data in the named encoding to a UTF-8 string. An empty
// label means UTF-8.
func Decode(data []byte, label string) (string, error) {
	enc, _, err := Lookup(label)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return string(data), nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}
	return string(out), nil
}
