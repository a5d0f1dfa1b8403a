package decoders

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

// playerJunk matches the decoy segments Playerjs splices into its file field
var playerJunk = regexp.MustCompile(`/@#@\S+?=?=`)

// PlayerFile decodes the "#9" file payload embedded in Playerjs setups
type PlayerFile struct{}

// Decode strips the junk segments and base64 decodes the remainder
func (PlayerFile) Decode(payload string) (string, error) {
	raw, err := decodeBase64(playerJunk.ReplaceAllString(payload, ""))
	if err != nil {
		return "", &DecodeError{Scheme: "player file", Err: err}
	}
	if !utf8.Valid(raw) {
		return "", &DecodeError{Scheme: "player file", Err: errors.New("payload is not valid UTF-8")}
	}
	return string(raw), nil
}
