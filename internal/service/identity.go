package service

import (
	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdentityKey is the canonical physical identity of a component. Records
// sharing a key are duplicates of the same physical part and must always
// report the same on-hand quantity.
type IdentityKey struct {
	// Master is set when the component carries an explicit master reference.
	Master *uuid.UUID
	// Name is the normalized name fallback.
	Name string
	// Own is the component's own id, used only when neither master nor a
	// usable name exists (no sharing possible).
	Own uuid.UUID
}

// String renders the key in preference order (master, name, own id) for use
// as a map key in visited sets and caches.
func (k IdentityKey) String() string {
	if k.Master != nil {
		return "m:" + k.Master.String()
	}
	if k.Name != "" {
		return "n:" + k.Name
	}
	return "i:" + k.Own.String()
}

// IdentityService resolves canonical identities and discovers duplicates.
type IdentityService interface {
	ResolveIdentity(c *model.Component) IdentityKey

	// FindDuplicatesTx returns every component record resolving to the same
	// key as c, c itself included. Master-reference matches and normalized
	// name matches are both queried and unioned: legacy rows may satisfy
	// only one side.
	FindDuplicatesTx(tx *gorm.DB, c *model.Component) ([]model.Component, error)
}

type identityService struct {
	components repository.ComponentRepository
}

func NewIdentityService(components repository.ComponentRepository) IdentityService {
	return &identityService{components: components}
}

func (s *identityService) ResolveIdentity(c *model.Component) IdentityKey {
	key := IdentityKey{Own: c.ID}
	if c.MasterID != nil {
		key.Master = c.MasterID
	}
	if n := c.NormalizedName(); n != "" {
		key.Name = n
	}
	return key
}

func (s *identityService) FindDuplicatesTx(tx *gorm.DB, c *model.Component) ([]model.Component, error) {
	key := s.ResolveIdentity(c)

	// The set is built from the store, never from the caller's detached
	// copy: c's own row arrives through one of the queries below, carrying
	// the quantity as of this transaction. A stale in-memory handle must
	// not shadow a write another handle already made.
	seen := map[uuid.UUID]bool{}
	var out []model.Component

	if key.Master != nil {
		byMaster, err := s.components.FindByMasterIDTx(tx, *key.Master)
		if err != nil {
			return nil, err
		}
		for _, d := range byMaster {
			if !seen[d.ID] {
				seen[d.ID] = true
				out = append(out, d)
			}
		}
	}

	if key.Name != "" {
		byName, err := s.components.FindByNameFoldTx(tx, key.Name)
		if err != nil {
			return nil, err
		}
		for _, d := range byName {
			if !seen[d.ID] {
				seen[d.ID] = true
				out = append(out, d)
			}
		}
	}

	// Unsaved or identity-less records match neither query; fall back to
	// the record itself so the ledger still has something to reconcile.
	if !seen[c.ID] {
		out = append(out, *c)
	}

	return out, nil
}
