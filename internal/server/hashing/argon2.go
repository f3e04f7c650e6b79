package hashing

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
)

const argon2idPrefix = "$argon2id$"

// Argon2Params are the argon2id cost parameters. Memory is in KiB.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params follows the OWASP baseline: 1 pass over 64 MiB with 4 lanes.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{Time: 1, Memory: 64 * 1024, Threads: 4, SaltLen: 16, KeyLen: 32}
}

type Argon2idHasher struct {
	p Argon2Params
}

func NewArgon2idHasher(p Argon2Params) (*Argon2idHasher, error) {
	if p == (Argon2Params{}) {
		p = DefaultArgon2Params()
	}
	if p.Time == 0 || p.Memory == 0 || p.Threads == 0 || p.SaltLen < 8 || p.KeyLen < 16 {
		return nil, fmt.Errorf("%w: invalid argon2id parameters %+v", common.ErrorValidation, p)
	}
	return &Argon2idHasher{p: p}, nil
}

// Hash returns a PHC string: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
func (h *Argon2idHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: password cannot be empty", common.ErrorValidation)
	}

	salt := common.GenerateRandByteArray(int(h.p.SaltLen))

	key := argon2.IDKey([]byte(plaintext), salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)

	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idPrefix,
		argon2.Version,
		h.p.Memory, h.p.Time, h.p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func (h *Argon2idHasher) Verify(plaintext, digest string) bool {
	p, salt, want, ok := parseArgon2id(digest)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(plaintext), salt, p.Time, p.Memory, p.Threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func (h *Argon2idHasher) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, argon2idPrefix)
}

func parseArgon2id(digest string) (Argon2Params, []byte, []byte, bool) {
	var p Argon2Params

	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}

	var threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return p, nil, nil, false
	}
	if p.Time == 0 || p.Memory == 0 || threads == 0 || threads > 255 {
		return p, nil, nil, false
	}
	p.Threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > 1024 {
		return p, nil, nil, false
	}

	return p, salt, key, true
}
