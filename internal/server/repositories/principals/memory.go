package principals

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/google/uuid"
)

type record struct {
	principal models.Principal
	hash      string
}

// MemoryRepository keeps the directory in process memory.
// A principal and its credential live in one record written under a single
// lock, so readers see either nothing or the complete record.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string]record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]record)}
}

func (r *MemoryRepository) Find(ctx context.Context, username string) (*models.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[username]
	if !ok {
		return nil, nil
	}
	p := rec.principal
	return &p, nil
}

func (r *MemoryRepository) Credential(ctx context.Context, username string) (*models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[username]
	if !ok {
		return nil, nil
	}
	return &models.Credential{Username: username, PasswordHash: rec.hash}, nil
}

func (r *MemoryRepository) Exists(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.records[username]
	return ok, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, p *models.Principal, c *models.Credential) error {
	if p.Username == "" || c.Username != p.Username {
		return common.ErrorValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[p.Username]; ok {
		return common.ErrDuplicateUsername
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	r.records[p.Username] = record{principal: *p, hash: c.PasswordHash}
	return nil
}

func (r *MemoryRepository) SetActive(ctx context.Context, username string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[username]
	if !ok {
		return common.ErrorNotFound
	}
	rec.principal.Active = active
	r.records[username] = rec
	return nil
}
