package memory

import (
	"context"
	"sync"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

// Credentials implements CredentialRepository in memory.
type Credentials struct {
	mu      sync.RWMutex
	byLogin map[string]model.Credential
}

var _ repository.CredentialRepository = (*Credentials)(nil)

// NewCredentials constructs an empty credential repository.
func NewCredentials() *Credentials {
	return &Credentials{byLogin: map[string]model.Credential{}}
}

// Create inserts a credential unless the login is taken.
func (r *Credentials) Create(_ context.Context, c *model.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byLogin[c.Login]; ok {
		return errs.ErrAlreadyExists
	}
	r.byLogin[c.Login] = *c
	return nil
}

// GetByLogin loads a credential by login.
func (r *Credentials) GetByLogin(_ context.Context, login string) (*model.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byLogin[login]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}
