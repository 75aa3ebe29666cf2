package memory

import (
	"context"
	"slices"

	"github.com/thewoodfish/property-delphi-contract/internal/errs"
	"github.com/thewoodfish/property-delphi-contract/internal/model"
)

type accounts struct{ u *unit }

func (r accounts) Put(_ context.Context, info model.AccountInfo) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	info.Name = append([]byte(nil), info.Name...)
	r.u.staged.accounts[info.Principal] = info
	return nil
}

func (r accounts) Get(_ context.Context, p model.Principal) (*model.AccountInfo, error) {
	info, ok := r.lookup(p)
	if !ok {
		return nil, errs.ErrNotFound
	}
	info.Name = append([]byte(nil), info.Name...)
	return &info, nil
}

func (r accounts) lookup(p model.Principal) (model.AccountInfo, bool) {
	if r.u.staged != nil {
		if v, ok := r.u.staged.accounts[p]; ok {
			return v, true
		}
	}
	v, ok := r.u.base.accounts[p]
	return v, ok
}

type types struct{ u *unit }

func (r types) Create(_ context.Context, t model.PropertyType) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.lookup(t.ID); ok {
		return errs.ErrAlreadyExists
	}
	r.u.staged.types[t.ID] = t
	return nil
}

func (r types) Get(_ context.Context, id model.TypeID) (*model.PropertyType, error) {
	t, ok := r.lookup(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &t, nil
}

func (r types) lookup(id model.TypeID) (model.PropertyType, bool) {
	if r.u.staged != nil {
		if v, ok := r.u.staged.types[id]; ok {
			return v, true
		}
	}
	v, ok := r.u.base.types[id]
	return v, ok
}

type claims struct{ u *unit }

func (r claims) Append(_ context.Context, typeID model.TypeID, id model.PropertyID) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if slices.Contains(r.list(typeID), id) {
		return errs.ErrAlreadyExists
	}
	r.u.staged.claims[typeID] = append(r.u.staged.claims[typeID], id)
	return nil
}

func (r claims) List(_ context.Context, typeID model.TypeID) ([]model.PropertyID, error) {
	return r.list(typeID), nil
}

func (r claims) list(typeID model.TypeID) []model.PropertyID {
	out := append([]model.PropertyID{}, r.u.base.claims[typeID]...)
	if r.u.staged != nil {
		out = append(out, r.u.staged.claims[typeID]...)
	}
	return out
}

type properties struct{ u *unit }

func (r properties) Create(_ context.Context, p model.Property) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	if _, ok := r.lookup(p.ID); ok {
		return errs.ErrAlreadyExists
	}
	r.u.staged.properties[p.ID] = p.Clone()
	return nil
}

func (r properties) Get(_ context.Context, id model.PropertyID) (*model.Property, error) {
	p, ok := r.lookup(id)
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (r properties) AppendTransfer(_ context.Context, id model.PropertyID, e model.TransferEntry) error {
	return r.modify(id, func(p *model.Property) {
		p.History = append(p.History, e)
	})
}

func (r properties) Supersede(_ context.Context, id model.PropertyID, by []model.PropertyID) error {
	return r.modify(id, func(p *model.Property) {
		p.SupersededBy = append([]model.PropertyID(nil), by...)
	})
}

func (r properties) SetAssertion(_ context.Context, id model.PropertyID, a model.Assertion) error {
	return r.modify(id, func(p *model.Property) {
		p.Assertion = &a
	})
}

// modify stages a changed copy of the property; the base record is never touched.
func (r properties) modify(id model.PropertyID, fn func(p *model.Property)) error {
	if err := r.u.writable(); err != nil {
		return err
	}
	p, ok := r.lookup(id)
	if !ok {
		return errs.ErrNotFound
	}
	c := p.Clone()
	fn(&c)
	r.u.staged.properties[id] = c
	return nil
}

func (r properties) lookup(id model.PropertyID) (model.Property, bool) {
	if r.u.staged != nil {
		if v, ok := r.u.staged.properties[id]; ok {
			return v, true
		}
	}
	v, ok := r.u.base.properties[id]
	return v, ok
}
