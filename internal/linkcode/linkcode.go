// Package linkcode is the single place that knows how a token travels
// inside a Telegram deep link. The issuer encodes with it and the webhook
// handler decodes with it, so the two can never drift apart.
package linkcode

import (
	"encoding/base64"
	"encoding/hex"
	"regexp"

	"github.com/bitovskii/meetup-app-sub000/internal/domain"
)

// TokenLength is the length of a raw token string in hex characters.
const TokenLength = 32

var tokenRe = regexp.MustCompile(`^[0-9a-f]{32}$`)

// Validate rejects anything that is not a 32-char lowercase hex string.
// Called at every boundary before the store is touched.
func Validate(token string) error {
	if !tokenRe.MatchString(token) {
		return domain.ErrMalformedToken
	}
	return nil
}

// Encode turns a raw hex token into the opaque deep-link argument.
// Telegram start payloads allow [A-Za-z0-9_-], which base64url without
// padding satisfies; the 16 raw bytes encode to 22 characters.
func Encode(token string) string {
	raw, err := hex.DecodeString(token)
	if err != nil {
		// Only reachable if Validate was skipped; fall back to the
		// raw token, which Decode also accepts.
		return token
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode is the exact inverse of Encode. It also accepts a raw hex token
// so links minted before the encoding was introduced keep working.
func Decode(arg string) (string, error) {
	if tokenRe.MatchString(arg) {
		return arg, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(arg)
	if err != nil || len(raw) != TokenLength/2 {
		return "", domain.ErrMalformedToken
	}
	token := hex.EncodeToString(raw)
	if !tokenRe.MatchString(token) {
		return "", domain.ErrMalformedToken
	}
	return token, nil
}
