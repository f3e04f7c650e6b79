package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/principals"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

var errBoom = errors.New("boom")

// fastHasher keeps bcrypt at its minimum cost so tests stay quick.
func fastHasher(t *testing.T) hashing.Hasher {
	t.Helper()
	h, err := hashing.NewBcryptHasher(4)
	require.NoError(t, err)
	return h
}

// recordingHasher counts Verify calls and remembers the digests it saw.
type recordingHasher struct {
	hashing.Hasher

	mu      sync.Mutex
	digests []string
}

func (h *recordingHasher) Verify(plaintext, digest string) bool {
	h.mu.Lock()
	h.digests = append(h.digests, digest)
	h.mu.Unlock()
	return h.Hasher.Verify(plaintext, digest)
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errBoom }
func (failingHasher) Verify(string, string) bool  { return false }

// brokenRepo fails every call.
type brokenRepo struct{}

func (brokenRepo) Find(context.Context, string) (*models.Principal, error) { return nil, errBoom }
func (brokenRepo) Credential(context.Context, string) (*models.Credential, error) {
	return nil, errBoom
}
func (brokenRepo) Exists(context.Context, string) (bool, error) { return false, errBoom }
func (brokenRepo) Insert(context.Context, *models.Principal, *models.Credential) error {
	return errBoom
}
func (brokenRepo) SetActive(context.Context, string, bool) error { return errBoom }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newCodec(t *testing.T, key string, c *clock) *auth.Codec {
	t.Helper()
	codec, err := auth.NewCodec([]byte(key), "", auth.WithClock(c.Now))
	require.NoError(t, err)
	return codec
}

func addUser(t *testing.T, repo principals.Repository, h hashing.Hasher, username, password string, active bool) {
	t.Helper()
	digest, err := h.Hash(password)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(),
		&models.Principal{Username: username, Active: active},
		&models.Credential{Username: username, PasswordHash: digest}))
}

func newRecorder() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp.Tracer("test")
}

// lastAttr returns the value of key on the most recently ended span.
func lastAttr(t *testing.T, sr *tracetest.SpanRecorder, key string) string {
	t.Helper()
	spans := sr.Ended()
	require.NotEmpty(t, spans)
	for _, kv := range spans[len(spans)-1].Attributes() {
		if kv.Key == attribute.Key(key) {
			return kv.Value.AsString()
		}
	}
	t.Fatalf("attribute %q not set", key)
	return ""
}
