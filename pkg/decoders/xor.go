package decoders

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IndexXOR decodes a hex string where every byte is XORed with a character
// of a repeating index key. Applying it twice with the same key is a no-op.
type IndexXOR struct {
	index []rune
}

// NewIndexXOR creates a decoder keyed by index
func NewIndexXOR(index string) *IndexXOR {
	return &IndexXOR{index: []rune(index)}
}

// Decode XORs every 2-digit hex pair of hash with the index key
func (x *IndexXOR) Decode(hash string) (string, error) {
	if len(x.index) == 0 {
		return "", &DecodeError{Scheme: "index xor", Err: errors.New("empty index key")}
	}

	var b strings.Builder
	for i := 0; i < len(hash); i += 2 {
		// a trailing odd digit is read on its own
		pair := hash[i:min(i+2, len(hash))]
		v, err := strconv.ParseUint(pair, 16, 8)
		if err != nil {
			return "", &DecodeError{Scheme: "index xor", Err: fmt.Errorf("bad hex pair %q at %d", pair, i)}
		}
		b.WriteRune(rune(v) ^ x.index[(i/2)%len(x.index)])
	}

	return b.String(), nil
}

// Encode is the inverse of Decode for text whose XORed runes fit in a byte
func (x *IndexXOR) Encode(plain string) string {
	if len(x.index) == 0 {
		return ""
	}

	var b strings.Builder
	for i, r := range []rune(plain) {
		fmt.Fprintf(&b, "%02x", r^x.index[i%len(x.index)])
	}
	return b.String()
}
