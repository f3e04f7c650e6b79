package hashing

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost puts a single verify in the tens of milliseconds.
const DefaultBcryptCost = 12

// bcrypt only looks at the first 72 bytes of input.
const bcryptMaxPasswordLen = 72

type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("%w: bcrypt cost %d out of range [%d, %d]",
			common.ErrorValidation, cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

func (h *BcryptHasher) Cost() int { return h.cost }

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", fmt.Errorf("%w: password cannot be empty", common.ErrorValidation)
	}
	if len(plaintext) > bcryptMaxPasswordLen {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrorValidation, bcryptMaxPasswordLen)
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Recognizes accepts the $2a$, $2b$ and $2y$ variants.
func (h *BcryptHasher) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}
