// Package decoders reverses the URL obfuscation layers used by embed
// providers. Each scheme is a Decoder so a scraper can pick the one its
// site uses.
package decoders

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Decoder turns an obfuscated payload back into plain text
type Decoder interface {
	Decode(encoded string) (string, error)
}

// ErrDecode is matched (via errors.Is) by every error a Decoder returns
var ErrDecode = errors.New("decode failed")

// DecodeError reports which scheme failed and why
type DecodeError struct {
	Scheme string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode failed: %v", e.Scheme, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrDecode) match any DecodeError
func (e *DecodeError) Is(target error) bool {
	return target == ErrDecode
}

// decodeBase64 accepts standard base64 with or without padding
func decodeBase64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
