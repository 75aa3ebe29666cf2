// Package repository defines storage interfaces implemented by concrete backends.
package repository

import "context"

// Registries groups the four registry maps visible inside one unit of work.
type Registries interface {
	Accounts() AccountRepository
	Types() PropertyTypeRepository
	Claims() ClaimIndexRepository
	Properties() PropertyRepository
}

// Store runs units of work over the registries.
//
// Update callbacks are serialized against each other and are all-or-nothing:
// when fn returns an error none of its writes become visible. View callbacks
// must not write.
type Store interface {
	// View runs fn with read access to the registries.
	View(ctx context.Context, fn func(r Registries) error) error
	// Update runs fn atomically with read-write access to the registries.
	Update(ctx context.Context, fn func(r Registries) error) error
}
