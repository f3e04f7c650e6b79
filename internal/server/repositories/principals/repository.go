// Package principals is the user directory: principals keyed by username
// together with their stored credentials.
package principals

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores principals and their credentials.
//
// Find and Credential report absence as (nil, nil); a missing user is a
// normal outcome, not an error. Insert writes the principal and its
// credential atomically and fails with common.ErrDuplicateUsername when the
// username is taken. SetActive is an administrative operation and returns
// common.ErrorNotFound for an unknown username.
type Repository interface {
	Find(ctx context.Context, username string) (*models.Principal, error)
	Credential(ctx context.Context, username string) (*models.Credential, error)
	Exists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, p *models.Principal, c *models.Credential) error
	SetActive(ctx context.Context, username string, active bool) error
}
