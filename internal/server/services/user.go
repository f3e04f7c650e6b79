// Package services contains the server-side business logic: password
// authentication, bearer token authorization and the account operations
// exposed by the transports.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"github.com/go-playground/validator/v10"
)

// RegisteredMessage is returned on successful registration.
const RegisteredMessage = "User registered successfully"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	FullName string `json:"full_name,omitempty" validate:"max=128"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type RegisterResponse struct {
	Message string         `json:"message"`
	Profile models.Profile `json:"user"`
}

type Validation struct {
	Valid   bool           `json:"valid"`
	Profile models.Profile `json:"user"`
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(subject string, ttl time.Duration) (string, error)
}

// SeedUser is a principal loaded at startup together with its password.
type SeedUser struct {
	Username string
	Email    string
	FullName string
	Password string
	Active   bool
}

// DemoUsers is the account created when the demo seed is enabled.
var DemoUsers = []SeedUser{
	{Username: "johndoe", Email: "johndoe@example.com", FullName: "John Doe", Password: "secret", Active: true},
}

// UserService implements login, registration and the token-protected
// profile operations.
type UserService struct {
	users    principals.Repository
	hasher   hashing.Hasher
	authn    *Authenticator
	guard    *Guard
	issuer   TokenIssuer
	tokenTTL time.Duration
	validate *validator.Validate
	instruments
}

func NewUserService(users principals.Repository, hasher hashing.Hasher, authn *Authenticator, guard *Guard,
	issuer TokenIssuer, tokenTTL time.Duration, opts ...Option) *UserService {
	return &UserService{
		users:       users,
		hasher:      hasher,
		authn:       authn,
		guard:       guard,
		issuer:      issuer,
		tokenTTL:    tokenTTL,
		validate:    newValidator(),
		instruments: newInstruments(opts),
	}
}

// Login authenticates req and issues a bearer token for the principal.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	p, err := s.authn.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(p.Username, s.tokenTTL)
	if err != nil {
		s.log.Error(ctx, "failed to issue token", "username", p.Username, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &TokenResponse{
		AccessToken: token,
		TokenType:   common.TokenTypeBearer,
		ExpiresIn:   int64(s.tokenTTL / time.Second),
	}, nil
}

// Register creates an active principal. Taken usernames fail with
// common.ErrDuplicateUsername and leave the existing account untouched.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	ctx, span := s.tracer.Start(ctx, "UserService.Register")
	defer span.End()

	if err := s.validate.StructCtx(ctx, req); err != nil {
		s.metrics.Registration(metrics.RegisterInvalid)
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, describe(err))
	}

	p, err := s.create(ctx, SeedUser{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
		Active:   true,
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateUsername):
			s.metrics.Registration(metrics.RegisterDuplicate)
		case errors.Is(err, common.ErrorValidation):
			s.metrics.Registration(metrics.RegisterInvalid)
		default:
			span.RecordError(err)
			s.metrics.Registration(metrics.RegisterError)
		}
		return nil, err
	}

	s.metrics.Registration(metrics.RegisterSuccess)
	s.log.Info(ctx, "user registered", "username", p.Username)
	return &RegisterResponse{Message: RegisteredMessage, Profile: p.Profile()}, nil
}

// Me returns the profile of the principal holding token.
func (s *UserService) Me(ctx context.Context, token string) (*models.Profile, error) {
	p, err := s.guard.Authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	profile := p.Profile()
	return &profile, nil
}

// Validate reports whether token authorizes an active principal.
func (s *UserService) Validate(ctx context.Context, token string) (*Validation, error) {
	p, err := s.guard.Authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Validation{Valid: true, Profile: p.Profile()}, nil
}

// Seed inserts users that are not yet registered. Existing usernames are
// skipped, so seeding is safe to repeat on every start.
func (s *UserService) Seed(ctx context.Context, users []SeedUser) error {
	for _, u := range users {
		_, err := s.create(ctx, u)
		if errors.Is(err, common.ErrDuplicateUsername) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed %q: %w", u.Username, err)
		}
		s.log.Info(ctx, "seeded user", "username", u.Username)
	}
	return nil
}

func (s *UserService) create(ctx context.Context, u SeedUser) (*models.Principal, error) {
	digest, err := s.hasher.Hash(u.Password)
	if errors.Is(err, common.ErrorValidation) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	p := &models.Principal{
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Active:   u.Active,
	}
	if err := s.users.Insert(ctx, p, &models.Credential{Username: u.Username, PasswordHash: digest}); err != nil {
		if errors.Is(err, common.ErrDuplicateUsername) {
			return nil, common.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return p, nil
}

// describe flattens validator field errors into one line.
// newValidator adds "maxbytes", a length limit counted in bytes rather than
// runes. bcrypt ignores input past 72 bytes.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
	}
	return msg
}
