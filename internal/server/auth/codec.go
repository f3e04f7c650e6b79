// Package auth mints and verifies the signed bearer tokens handed out at login.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultAlgorithm is used when no signing algorithm is configured.
const DefaultAlgorithm = "HS256"

// NumericDate values are written with millisecond fractions, so exp lands
// within a millisecond of now+ttl instead of being cut to a whole second.
func init() {
	jwt.TimePrecision = time.Millisecond
}

// Claims is the token payload: the subject (username), expiry and issue time.
type Claims struct {
	jwt.RegisteredClaims
}

// Codec issues and decodes HMAC-signed JWTs under one process-wide key.
// The key and algorithm are fixed at construction, so a Codec is safe for
// concurrent use.
type Codec struct {
	key        []byte
	method     *jwt.SigningMethodHMAC
	now        func() time.Time
	parser     *jwt.Parser
	unverified *jwt.Parser
}

type Option func(*Codec)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a codec for one of HS256, HS384 or HS512 (HS256 when alg
// is empty). A missing key is a configuration error.
func NewCodec(key []byte, alg string, opts ...Option) (*Codec, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: signing key is empty", common.ErrorValidation)
	}
	if alg == "" {
		alg = DefaultAlgorithm
	}

	method, ok := jwt.GetSigningMethod(strings.ToUpper(alg)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", common.ErrorValidation, alg)
	}

	c := &Codec{
		key:    append([]byte(nil), key...),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return c.now() }),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	c.unverified = jwt.NewParser(jwt.WithStrictDecoding())

	return c, nil
}

// Algorithm reports the JWS alg header value the codec signs with.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// Issue signs a token for subject that expires ttl from now. ttl must be at
// least one second.
func (c *Codec) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("%w: token subject is empty", common.ErrorValidation)
	}
	if ttl < time.Second {
		return "", fmt.Errorf("%w: token ttl %s is below one second", common.ErrorValidation, ttl)
	}

	now := c.now()
	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	s, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Decode verifies token and returns its claims. Failures are reported as
// exactly one of common.ErrMalformedToken, common.ErrBadSignature or
// common.ErrTokenExpired, wrapping the underlying parser error.
func (c *Codec) Decode(token string) (*Claims, error) {
	if strings.Count(token, ".") != 2 {
		return nil, common.ErrMalformedToken
	}

	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, c.classify(token, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token has no subject", common.ErrMalformedToken)
	}
	return claims, nil
}

func (c *Codec) classify(token string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", common.ErrBadSignature, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		// header and payload parse, so only the signature segment is broken
		if _, _, uerr := c.unverified.ParseUnverified(token, &Claims{}); uerr == nil {
			return fmt.Errorf("%w: %v", common.ErrBadSignature, err)
		}
		return fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", common.ErrTokenExpired, err)
	default:
		return fmt.Errorf("%w: %v", common.ErrMalformedToken, err)
	}
}
