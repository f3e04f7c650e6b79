package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T, secret string) (*Codec, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	c, err := NewCodec([]byte(secret), "", WithClock(clock.Now))
	require.NoError(t, err)
	return c, clock
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestIssueAndDecode_RoundTrip(t *testing.T) {
	c, clock := newTestCodec(t, "super-secret")

	tok, err := c.Issue("alice", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(tok, "."))

	claims, err := c.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, clock.Now().Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, clock.Now().Unix(), claims.IssuedAt.Unix())
}

func TestDecode_IsIdempotent(t *testing.T) {
	c, clock := newTestCodec(t, "k")
	tok, err := c.Issue("bob", time.Hour)
	require.NoError(t, err)

	first, err := c.Decode(tok)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	second, err := c.Decode(tok)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDecode_ExpiryBoundary(t *testing.T) {
	c, clock := newTestCodec(t, "k")
	tok, err := c.Issue("u1", time.Second)
	require.NoError(t, err)

	clock.Advance(999 * time.Millisecond)
	_, err = c.Decode(tok)
	require.NoError(t, err, "still valid just before expiry")

	clock.Advance(time.Millisecond)
	_, err = c.Decode(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired, "expired exactly at exp")

	clock.Advance(time.Hour)
	_, err = c.Decode(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestDecode_ExpiryBoundaryFractionalClock(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 900_000_000)}
	c, err := NewCodec([]byte("k"), "", WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := c.Issue("alice", time.Second)
	require.NoError(t, err)

	claims, err := c.Decode(tok)
	require.NoError(t, err)
	// exp travels as a float of seconds; parsing it back may lose under a millisecond.
	assert.WithinDuration(t, clock.Now().Add(time.Second), claims.ExpiresAt.Time, time.Millisecond)

	clock.Advance(200 * time.Millisecond)
	_, err = c.Decode(tok)
	require.NoError(t, err, "valid 200ms into a one second lifetime")

	clock.Advance(798 * time.Millisecond)
	_, err = c.Decode(tok)
	require.NoError(t, err, "valid 2ms before exp")

	clock.Advance(2 * time.Millisecond)
	_, err = c.Decode(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired, "expired at issue+ttl")
}

func TestDecode_TamperedSignatureBits(t *testing.T) {
	c, _ := newTestCodec(t, "k")
	tok, err := c.Issue("alice", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		flipped := append([]byte(nil), sig...)
		flipped[i/8] ^= 1 << (i % 8)
		forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)

		_, err := c.Decode(forged)
		if !errors.Is(err, common.ErrBadSignature) {
			t.Fatalf("bit %d: want ErrBadSignature, got %v", i, err)
		}
	}
}

func TestDecode_TamperedSignatureText(t *testing.T) {
	c, _ := newTestCodec(t, "k")
	tok, err := c.Issue("alice", time.Hour)
	require.NoError(t, err)

	sigStart := strings.LastIndex(tok, ".") + 1
	for i := sigStart; i < len(tok); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(tok)
			b[i] ^= 1 << bit
			if _, err := c.Decode(string(b)); err == nil {
				t.Fatalf("tampered token at byte %d bit %d decoded successfully", i, bit)
			}
		}
	}

	// non-canonical trailing bits in the last character
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := strings.IndexByte(alphabet, tok[len(tok)-1])
	require.GreaterOrEqual(t, last, 0)
	forged := tok[:len(tok)-1] + string(alphabet[last^1])
	_, err = c.Decode(forged)
	assert.ErrorIs(t, err, common.ErrBadSignature)
}

func TestDecode_TamperedPayloadIsBadSignature(t *testing.T) {
	c, _ := newTestCodec(t, "k")
	tok, err := c.Issue("alice", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"mallory","exp":9999999999}`))
	_, err = c.Decode(parts[0] + "." + payload + "." + parts[2])
	assert.ErrorIs(t, err, common.ErrBadSignature)
}

func TestDecode_WrongKey(t *testing.T) {
	issuer, _ := newTestCodec(t, "right-secret")
	verifier, _ := newTestCodec(t, "wrong-secret")

	tok, err := issuer.Issue("u2", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Decode(tok)
	assert.ErrorIs(t, err, common.ErrBadSignature)
}

func TestDecode_RejectsOtherAlgorithms(t *testing.T) {
	c, clock := newTestCodec(t, "k")
	claims := jwt.RegisteredClaims{Subject: "alice", ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))}

	hs512 := sign(t, jwt.SigningMethodHS512, []byte("k"), claims)
	_, err := c.Decode(hs512)
	assert.ErrorIs(t, err, common.ErrBadSignature)

	none := sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claims)
	_, err = c.Decode(none)
	assert.ErrorIs(t, err, common.ErrBadSignature)
}

func TestDecode_Malformed(t *testing.T) {
	c, clock := newTestCodec(t, "k")

	noSubject := sign(t, jwt.SigningMethodHS256, []byte("k"),
		jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))})
	noExpiry := sign(t, jwt.SigningMethodHS256, []byte("k"), jwt.RegisteredClaims{Subject: "alice"})

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "garbage"},
		{name: "two segments", token: "a.b"},
		{name: "four segments", token: "a.b.c.d"},
		{name: "not base64 json", token: "not.a.jwt"},
		{name: "payload not json", token: "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9.bm90LWpzb24.c2ln"},
		{name: "missing subject", token: noSubject},
		{name: "missing expiry", token: noExpiry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Decode(tt.token)
			assert.ErrorIs(t, err, common.ErrMalformedToken)
			assert.NotErrorIs(t, err, common.ErrBadSignature)
			assert.NotErrorIs(t, err, common.ErrTokenExpired)
		})
	}
}

func TestIssue_Validation(t *testing.T) {
	c, _ := newTestCodec(t, "k")

	_, err := c.Issue("", time.Hour)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = c.Issue("alice", 500*time.Millisecond)
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = c.Issue("alice", -time.Second)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestNewCodec(t *testing.T) {
	_, err := NewCodec(nil, "HS256")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = NewCodec([]byte("k"), "RS256")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = NewCodec([]byte("k"), "bogus")
	assert.ErrorIs(t, err, common.ErrorValidation)

	c, err := NewCodec([]byte("k"), "")
	require.NoError(t, err)
	assert.Equal(t, "HS256", c.Algorithm())

	for _, alg := range []string{"HS384", "hs512"} {
		c, err := NewCodec([]byte("k"), alg)
		require.NoError(t, err)
		tok, err := c.Issue("alice", time.Minute)
		require.NoError(t, err)
		claims, err := c.Decode(tok)
		require.NoError(t, err)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, strings.ToUpper(alg), c.Algorithm())
	}
}

func TestNewCodec_CopiesKey(t *testing.T) {
	key := []byte("secret")
	c, err := NewCodec(key, "")
	require.NoError(t, err)
	tok, err := c.Issue("alice", time.Minute)
	require.NoError(t, err)

	key[0] = 'X'
	_, err = c.Decode(tok)
	assert.NoError(t, err)
}
