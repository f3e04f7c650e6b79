// Package hashing implements one-way password digests.
//
// Digests are self-describing strings (bcrypt MCF or argon2id PHC), so a
// stored digest carries its own salt and cost parameters and Verify needs no
// side information.
package hashing

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Hasher produces and checks password digests.
//
// Hash salts every call, so hashing the same plaintext twice gives two
// different digests. Verify reports false for a wrong password and for any
// digest it cannot parse; it never returns an error.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// Algorithm names a digest scheme.
type Algorithm string

const (
	AlgorithmBcrypt   Algorithm = "bcrypt"
	AlgorithmArgon2id Algorithm = "argon2id"
)

// Options selects the preferred algorithm and its cost parameters.
type Options struct {
	Algorithm  Algorithm
	BcryptCost int
	Argon2     Argon2Params
}

// DefaultOptions hashes with bcrypt at cost 12.
func DefaultOptions() Options {
	return Options{
		Algorithm:  AlgorithmBcrypt,
		BcryptCost: DefaultBcryptCost,
		Argon2:     DefaultArgon2Params(),
	}
}

// New builds a Chain that hashes with opts.Algorithm and verifies digests of
// every supported algorithm.
func New(opts Options) (*Chain, error) {
	bc, err := NewBcryptHasher(opts.BcryptCost)
	if err != nil {
		return nil, err
	}
	ar, err := NewArgon2idHasher(opts.Argon2)
	if err != nil {
		return nil, err
	}

	switch Algorithm(strings.ToLower(string(opts.Algorithm))) {
	case AlgorithmBcrypt, "":
		return NewChain(bc, ar), nil
	case AlgorithmArgon2id:
		return NewChain(ar, bc), nil
	default:
		return nil, fmt.Errorf("%w: unsupported hash algorithm %q", common.ErrorValidation, opts.Algorithm)
	}
}

// recognizer is implemented by hashers that can tell their own digests apart.
type recognizer interface {
	Recognizes(digest string) bool
}

// Chain hashes with its first member and verifies with whichever member
// recognises the digest prefix. Switching the preferred algorithm therefore
// keeps previously stored digests valid.
type Chain struct {
	members []Hasher
}

func NewChain(preferred Hasher, others ...Hasher) *Chain {
	return &Chain{members: append([]Hasher{preferred}, others...)}
}

func (c *Chain) Hash(plaintext string) (string, error) {
	return c.members[0].Hash(plaintext)
}

func (c *Chain) Verify(plaintext, digest string) bool {
	for _, m := range c.members {
		if r, ok := m.(recognizer); ok && !r.Recognizes(digest) {
			continue
		}
		return m.Verify(plaintext, digest)
	}
	return false
}
