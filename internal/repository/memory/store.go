// Package memory contains in-process implementations of repository interfaces.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/thewoodfish/property-delphi-contract/internal/model"
	"github.com/thewoodfish/property-delphi-contract/internal/repository"
)

var errReadOnly = errors.New("memory: write inside View")

// state holds one generation of the four registry maps.
type state struct {
	accounts   map[model.Principal]model.AccountInfo
	types      map[model.TypeID]model.PropertyType
	claims     map[model.TypeID][]model.PropertyID
	properties map[model.PropertyID]model.Property
}

func newState() *state {
	return &state{
		accounts:   map[model.Principal]model.AccountInfo{},
		types:      map[model.TypeID]model.PropertyType{},
		claims:     map[model.TypeID][]model.PropertyID{},
		properties: map[model.PropertyID]model.Property{},
	}
}

// merge applies staged writes. Claim lists in staged hold only appended ids.
func (s *state) merge(staged *state) {
	for k, v := range staged.accounts {
		s.accounts[k] = v
	}
	for k, v := range staged.types {
		s.types[k] = v
	}
	for k, ids := range staged.claims {
		s.claims[k] = append(s.claims[k], ids...)
	}
	for k, v := range staged.properties {
		s.properties[k] = v
	}
}

// Store is a Store kept in memory. Update holds the write lock for the whole
// unit and stages writes in an overlay that is merged only on success.
type Store struct {
	mu   sync.RWMutex
	base *state
}

var _ repository.Store = (*Store)(nil)

// NewStore constructs an empty store.
func NewStore() *Store { return &Store{base: newState()} }

// View runs fn against the committed state.
func (s *Store) View(ctx context.Context, fn func(r repository.Registries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&unit{base: s.base})
}

// Update runs fn and commits its writes only if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(r repository.Registries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &unit{base: s.base, staged: newState()}
	if err := fn(u); err != nil {
		return err
	}
	s.base.merge(u.staged)
	return nil
}

// unit reads through staged writes to the committed base. staged is nil for View.
type unit struct {
	base   *state
	staged *state
}

func (u *unit) Accounts() repository.AccountRepository { return accounts{u} }
func (u *unit) Types() repository.PropertyTypeRepository { return types{u} }
func (u *unit) Claims() repository.ClaimIndexRepository { return claims{u} }
func (u *unit) Properties() repository.PropertyRepository { return properties{u} }
func (u *unit) writable() error {
	if u.staged == nil {
		return errReadOnly
	}
	return nil
}
