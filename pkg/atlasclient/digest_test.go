package atlasclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDigestChallenge(t *testing.T) {
	header := `Digest realm="MMS Public API", nonce="abc123", qop="auth", algorithm=MD5`

	c, ok := parseDigestChallenge(header)
	require.True(t, ok)
	assert.Equal(t, "MMS Public API", c.realm)
	assert.Equal(t, "abc123", c.nonce)
	assert.Equal(t, "auth", c.qop)
	assert.Equal(t, "MD5", c.algorithm)
}

func TestParseDigestChallenge_NotDigest(t *testing.T) {
	_, ok := parseDigestChallenge(`Basic realm="x"`)
	assert.False(t, ok)
}

func TestParseDigestChallenge_DefaultsToMD5(t *testing.T) {
	c, ok := parseDigestChallenge(`Digest realm="r", nonce="n"`)
	require.True(t, ok)
	assert.Equal(t, "MD5", c.algorithm)
}

func TestBuildDigestAuthorization_ContainsExpectedFields(t *testing.T) {
	c := digestChallenge{realm: "MMS Public API", nonce: "abc123", qop: "auth"}

	header := buildDigestAuthorization("pubkey", "privkey", "GET", "/api/atlas/v2/groups", c)

	assert.Contains(t, header, `username="pubkey"`)
	assert.Contains(t, header, `realm="MMS Public API"`)
	assert.Contains(t, header, `nonce="abc123"`)
	assert.Contains(t, header, `uri="/api/atlas/v2/groups"`)
	assert.Contains(t, header, `qop=auth`)
	assert.Contains(t, header, "response=")
}

func TestBuildDigestAuthorization_DeterministicWithoutQop(t *testing.T) {
	c := digestChallenge{realm: "r", nonce: "n", algorithm: "MD5"}
	h1 := buildDigestAuthorization("u", "p", "GET", "/x", c)
	h2 := buildDigestAuthorization("u", "p", "GET", "/x", c)
	// without qop, no nc/cnonce are mixed in, so the header is reproducible
	assert.Equal(t, h1, h2)
}
