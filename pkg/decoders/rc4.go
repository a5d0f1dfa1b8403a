package decoders

import (
	"crypto/rc4"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// VidsrcToKey is the fixed key vidsrc.to uses for its source URLs
const VidsrcToKey = "8z5Ag5wgagfsOuhz"

var (
	toStdAlphabet = strings.NewReplacer("_", "/", "-", "+")
	toURLAlphabet = strings.NewReplacer("/", "_", "+", "-")
)

// RC4 runs the RC4 key schedule over key and XORs the keystream into data.
// The input slice is left untouched.
func RC4(key, data []byte) ([]byte, error) {
	cipher, err := rc4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("invalid rc4 key: %w", err)
	}
	out := make([]byte, len(data))
	cipher.XORKeyStream(out, data)
	return out, nil
}

// KeyedStream decodes base64url-ish, RC4 encrypted, percent-escaped URLs
type KeyedStream struct {
	key []byte
}

// NewKeyedStream creates a decoder for the given key
func NewKeyedStream(key string) *KeyedStream {
	return &KeyedStream{key: []byte(key)}
}

// Decode reverses Encode: alphabet swap, base64, RC4, UTF-8 check, unescape
func (k *KeyedStream) Decode(encoded string) (string, error) {
	raw, err := decodeBase64(toStdAlphabet.Replace(encoded))
	if err != nil {
		return "", &DecodeError{Scheme: "keyed stream", Err: err}
	}

	plain, err := RC4(k.key, raw)
	if err != nil {
		return "", &DecodeError{Scheme: "keyed stream", Err: err}
	}

	if !utf8.Valid(plain) {
		return "", &DecodeError{Scheme: "keyed stream", Err: errors.New("plaintext is not valid UTF-8")}
	}

	// PathUnescape keeps '+' literal
	unescaped, err := url.PathUnescape(string(plain))
	if err != nil {
		return "", &DecodeError{Scheme: "keyed stream", Err: err}
	}

	return unescaped, nil
}

// Encode produces a payload that Decode turns back into plain
func (k *KeyedStream) Encode(plain string) (string, error) {
	sealed, err := RC4(k.key, []byte(url.PathEscape(plain)))
	if err != nil {
		return "", err
	}
	return toURLAlphabet.Replace(base64.StdEncoding.EncodeToString(sealed)), nil
}
