package threecommas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// APIPrefix is prepended to every request path, both in the signing string
// and in the dispatched URL.
const APIPrefix = "/public/api"

// SigningString builds the canonical string the request signature covers:
// prefix + path, then "?"+query when query is non-empty, then the raw body
// exactly as it will be transmitted.
func SigningString(path, query, body string) string {
	var b strings.Builder
	b.WriteString(APIPrefix)
	b.WriteString(path)
	if query != "" {
		b.WriteString("?")
		b.WriteString(query)
	}
	if body != "" {
		b.WriteString(body)
	}
	return b.String()
}

// Sign creates the hex-encoded HMAC-SHA256 digest over the canonical
// signing string. The digest is carried in the Signature request header.
func Sign(secret, path, query, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(SigningString(path, query, body)))
	return hex.EncodeToString(mac.Sum(nil))
}
