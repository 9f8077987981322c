package threecommas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigningString(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		query    string
		body     string
		expected string
	}{
		{
			name:     "path only",
			path:     "/ver1/bots",
			expected: "/public/api/ver1/bots",
		},
		{
			name:     "path with query",
			path:     "/ver1/bots",
			query:    "account_id=7",
			expected: "/public/api/ver1/bots?account_id=7",
		},
		{
			name:     "path with body",
			path:     "/ver1/bots",
			body:     `{"name":"x"}`,
			expected: `/public/api/ver1/bots{"name":"x"}`,
		},
		{
			name:     "path query and body",
			path:     "/ver1/bots/1/deals",
			query:    "limit=10&offset=0",
			body:     `{"a":1}`,
			expected: `/public/api/ver1/bots/1/deals?limit=10&offset=0{"a":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SigningString(tt.path, tt.query, tt.body))
		})
	}
}

func TestSignDeterministic(t *testing.T) {
	a := Sign("secret", "/ver1/bots", "", `{"name":"My Bot"}`)
	b := Sign("secret", "/ver1/bots", "", `{"name":"My Bot"}`)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded SHA256
}

func TestSignSensitiveToSingleByte(t *testing.T) {
	body := `{"name":"My Bot","take_profit":2.5}`
	base := Sign("secret", "/ver1/bots", "", body)

	// Flipping any single byte of the body must change the digest.
	for i := 0; i < len(body); i++ {
		mutated := []byte(body)
		mutated[i] ^= 0x01
		assert.NotEqual(t, base, Sign("secret", "/ver1/bots", "", string(mutated)),
			"digest unchanged after mutating body byte %d", i)
	}
}

func TestSignDependsOnSecretAndQuery(t *testing.T) {
	assert.NotEqual(t,
		Sign("secret-a", "/ver1/bots", "", ""),
		Sign("secret-b", "/ver1/bots", "", ""))
	assert.NotEqual(t,
		Sign("secret", "/ver1/bots", "account_id=1", ""),
		Sign("secret", "/ver1/bots", "account_id=2", ""))
}
