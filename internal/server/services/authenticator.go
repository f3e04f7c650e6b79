package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const attrAuthResult = "auth.result"

// Authenticator checks a username and password against the directory.
type Authenticator struct {
	users  principals.Repository
	hasher hashing.Hasher
	// dummy is verified against when the username is unknown, so both
	// failure paths pay for one digest comparison.
	dummy string
	instruments
}

// NewAuthenticator hashes a random throwaway password with hasher to build
// the digest used for unknown usernames. It fails if hasher cannot hash.
func NewAuthenticator(users principals.Repository, hasher hashing.Hasher, opts ...Option) (*Authenticator, error) {
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("generate dummy password: %w", err)
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}

	return &Authenticator{
		users:       users,
		hasher:      hasher,
		dummy:       dummy,
		instruments: newInstruments(opts),
	}, nil
}

// Authenticate returns the principal for username when password matches its
// stored credential. An unknown username and a wrong password both yield
// common.ErrInvalidCredentials. The active flag is not checked here.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*models.Principal, error) {
	ctx, span := a.tracer.Start(ctx, "Authenticator.Authenticate")
	defer span.End()

	cred, err := a.users.Credential(ctx, username)
	if err != nil {
		return nil, a.fail(ctx, span, err)
	}
	if cred == nil {
		a.hasher.Verify(password, a.dummy)
		return nil, a.reject(ctx, span, username, metrics.LoginUserNotFound)
	}

	if !a.hasher.Verify(password, cred.PasswordHash) {
		return nil, a.reject(ctx, span, username, metrics.LoginInvalidPassword)
	}

	p, err := a.users.Find(ctx, username)
	if err != nil {
		return nil, a.fail(ctx, span, err)
	}
	if p == nil {
		return nil, a.reject(ctx, span, username, metrics.LoginUserNotFound)
	}

	span.SetAttributes(attribute.String(attrAuthResult, metrics.LoginSuccess))
	a.metrics.Login(metrics.LoginSuccess)
	a.log.Debug(ctx, "authentication succeeded", "username", username)
	return p, nil
}

func (a *Authenticator) reject(ctx context.Context, span trace.Span, username, result string) error {
	span.SetAttributes(attribute.String(attrAuthResult, result))
	a.metrics.Login(result)
	a.log.Debug(ctx, "authentication rejected", "username", username, "reason", result)
	return common.ErrInvalidCredentials
}

func (a *Authenticator) fail(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "directory lookup failed")
	span.SetAttributes(attribute.String(attrAuthResult, metrics.LoginError))
	a.metrics.Login(metrics.LoginError)
	a.log.Error(ctx, "directory lookup failed", "error", err)
	return fmt.Errorf("%w: %v", common.ErrorInternal, err)
}
