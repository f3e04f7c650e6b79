package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userFixture struct {
	svc   *UserService
	repo  *principals.MemoryRepository
	clock *clock
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	repo := principals.NewMemoryRepository()
	h := fastHasher(t)
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	codec := newCodec(t, "user-service-key", c)

	authn, err := NewAuthenticator(repo, h)
	require.NoError(t, err)

	svc := NewUserService(repo, h, authn, NewGuard(codec, repo), codec, 30*time.Minute)
	return &userFixture{svc: svc, repo: repo, clock: c}
}

func TestUserService_EndToEnd(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, RegisteredMessage, reg.Message)

	tok, err := f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)
	assert.Equal(t, int64(1800), tok.ExpiresIn)
	require.NotEmpty(t, tok.AccessToken)

	me, err := f.svc.Me(ctx, tok.AccessToken)
	require.NoError(t, err)
	if diff := cmp.Diff(models.Profile{Username: "alice", Active: true}, *me); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}

	_, err = f.svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong-password"})
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = f.svc.Me(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_InactiveIsForbidden(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterRequest{Username: "carol", Password: "secret123"})
	require.NoError(t, err)
	tok, err := f.svc.Login(ctx, LoginRequest{Username: "carol", Password: "secret123"})
	require.NoError(t, err)

	require.NoError(t, f.repo.SetActive(ctx, "carol", false))

	_, err = f.svc.Me(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, common.ErrorForbidden)
	_, err = f.svc.Validate(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, common.ErrorForbidden)
}

func TestUserService_TokenExpires(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterRequest{Username: "dave", Password: "secret123"})
	require.NoError(t, err)
	tok, err := f.svc.Login(ctx, LoginRequest{Username: "dave", Password: "secret123"})
	require.NoError(t, err)

	f.clock.Advance(30*time.Minute - time.Second)
	_, err = f.svc.Validate(ctx, tok.AccessToken)
	require.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.svc.Validate(ctx, tok.AccessToken)
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestUserService_DuplicateRegistration(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterRequest{Username: "johndoe", Password: "first-secret"})
	require.NoError(t, err)

	cred, err := f.repo.Credential(ctx, "johndoe")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterRequest{Username: "johndoe", Password: "second-secret"})
	require.ErrorIs(t, err, common.ErrDuplicateUsername)

	after, err := f.repo.Credential(ctx, "johndoe")
	require.NoError(t, err)
	assert.Equal(t, cred, after)

	_, err = f.svc.Login(ctx, LoginRequest{Username: "johndoe", Password: "first-secret"})
	assert.NoError(t, err)
}

func TestUserService_ConcurrentRegistrationSingleWinner(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(ctx, RegisterRequest{Username: "race", Password: "secret123"})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, common.ErrDuplicateUsername)
	}
	assert.Equal(t, 1, ok)
}

func TestUserService_RegisterValidation(t *testing.T) {
	f := newUserFixture(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing username", RegisterRequest{Password: "secret123"}},
		{"short password", RegisterRequest{Username: "erin", Password: "123"}},
		{"bad email", RegisterRequest{Username: "erin", Email: "not-an-email", Password: "secret123"}},
		{"long username", RegisterRequest{Username: string(make([]byte, 65)), Password: "secret123"}},
		{"password over 72 bytes", RegisterRequest{Username: "erin", Password: strings.Repeat("é", 40)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}

	exists, err := f.repo.Exists(context.Background(), "erin")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUserService_RegisterMultibytePassword(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	// 36 runes, 72 bytes: exactly at the bcrypt limit.
	pw := strings.Repeat("é", 36)
	_, err := f.svc.Register(ctx, RegisterRequest{Username: "zoe", Password: pw})
	require.NoError(t, err)

	tok, err := f.svc.Login(ctx, LoginRequest{Username: "zoe", Password: pw})
	require.NoError(t, err)
	assert.NotEmpty(t, tok.AccessToken)

	_, err = f.svc.Register(ctx, RegisterRequest{Username: "yan", Password: strings.Repeat("é", 40)})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.NotErrorIs(t, err, common.ErrorInternal)
	assert.Contains(t, err.Error(), "maxbytes=72")
}

func TestUserService_HasherValidationErrorIsNotInternal(t *testing.T) {
	f := newUserFixture(t)

	// Seed skips the struct validator, so the hasher's own limit is what fires.
	err := f.svc.Seed(context.Background(), []SeedUser{{Username: "long", Password: strings.Repeat("é", 40)}})
	require.ErrorIs(t, err, common.ErrorValidation)
	assert.NotErrorIs(t, err, common.ErrorInternal)
}

func TestUserService_RegisterProfile(t *testing.T) {
	f := newUserFixture(t)

	resp, err := f.svc.Register(context.Background(), RegisterRequest{
		Username: "frank",
		Email:    "frank@example.com",
		FullName: "Frank Example",
		Password: "secret123",
	})
	require.NoError(t, err)

	want := models.Profile{Username: "frank", Email: "frank@example.com", FullName: "Frank Example", Active: true}
	if diff := cmp.Diff(want, resp.Profile); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestUserService_Validate(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Seed(ctx, DemoUsers))

	tok, err := f.svc.Login(ctx, LoginRequest{Username: "johndoe", Password: "secret"})
	require.NoError(t, err)

	v, err := f.svc.Validate(ctx, tok.AccessToken)
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.Equal(t, "johndoe", v.Profile.Username)
	assert.Equal(t, "John Doe", v.Profile.FullName)
}

func TestUserService_SeedIsRepeatable(t *testing.T) {
	f := newUserFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Seed(ctx, DemoUsers))
	require.NoError(t, f.svc.Seed(ctx, DemoUsers))

	ok, err := f.repo.Exists(ctx, "johndoe")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserService_RegisterDirectoryError(t *testing.T) {
	h := fastHasher(t)
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	codec := newCodec(t, "k", c)
	authn, err := NewAuthenticator(brokenRepo{}, h)
	require.NoError(t, err)
	svc := NewUserService(brokenRepo{}, h, authn, NewGuard(codec, brokenRepo{}), codec, time.Minute)

	_, err = svc.Register(context.Background(), RegisterRequest{Username: "gina", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrorInternal)
}
