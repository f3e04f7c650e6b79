package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const attrGuardReason = "guard.reason"

// Guard reasons recorded on spans and in logs.
const (
	reasonMalformed    = "malformed_token"
	reasonBadSignature = "bad_signature"
	reasonExpired      = "expired"
	reasonUnknownUser  = "unknown_subject"
	reasonInactive     = "inactive"
)

// TokenDecoder verifies a bearer token and returns its claims.
type TokenDecoder interface {
	Decode(token string) (*auth.Claims, error)
}

// Guard resolves a bearer token to an active principal.
type Guard struct {
	codec TokenDecoder
	users principals.Repository
	instruments
}

func NewGuard(codec TokenDecoder, users principals.Repository, opts ...Option) *Guard {
	return &Guard{
		codec:       codec,
		users:       users,
		instruments: newInstruments(opts),
	}
}

// Authorize returns the principal named by token. Any decode failure or an
// unknown subject yields common.ErrorUnauthorized; an inactive principal
// yields common.ErrorForbidden. The directory is only read.
func (g *Guard) Authorize(ctx context.Context, token string) (*models.Principal, error) {
	ctx, span := g.tracer.Start(ctx, "Guard.Authorize")
	defer span.End()

	claims, err := g.codec.Decode(token)
	if err != nil {
		return nil, g.deny(ctx, span, decodeReason(err), common.ErrorUnauthorized, err)
	}

	p, err := g.users.Find(ctx, claims.Subject)
	if err != nil {
		span.RecordError(err)
		g.metrics.Authorization(metrics.AuthzError)
		g.log.Error(ctx, "directory lookup failed", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if p == nil {
		return nil, g.deny(ctx, span, reasonUnknownUser, common.ErrorUnauthorized, nil)
	}
	if !p.Active {
		return nil, g.deny(ctx, span, reasonInactive, common.ErrorForbidden, nil)
	}

	span.SetAttributes(attribute.String("enduser.id", p.Username))
	g.metrics.Authorization(metrics.AuthzAuthorized)
	return p, nil
}

func (g *Guard) deny(ctx context.Context, span trace.Span, reason string, result, cause error) error {
	span.SetAttributes(attribute.String(attrGuardReason, reason))

	outcome := metrics.AuthzUnauthorized
	if errors.Is(result, common.ErrorForbidden) {
		outcome = metrics.AuthzForbidden
	}
	g.metrics.Authorization(outcome)

	if cause != nil {
		g.log.Debug(ctx, "authorization denied", "reason", reason, "error", cause)
	} else {
		g.log.Debug(ctx, "authorization denied", "reason", reason)
	}
	return result
}

func decodeReason(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return reasonExpired
	case errors.Is(err, common.ErrBadSignature):
		return reasonBadSignature
	default:
		return reasonMalformed
	}
}
