package service

import (
	"context"

	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService is the sole mutator of on-hand quantities. Every delta is
// applied duplicate-aware: all records sharing the component's canonical
// identity are reconciled to a single maximum before the delta lands, and
// the new value is written back to every one of them within the same
// transaction.
type LedgerService interface {
	// ApplyDeltaTx reconciles duplicates, applies the signed delta floored
	// at zero, and writes the result to every duplicate. Returns the new
	// quantity.
	ApplyDeltaTx(ctx context.Context, tx *gorm.DB, c *model.Component, delta decimal.Decimal) (decimal.Decimal, error)

	// CurrentQuantityTx returns the duplicate-aware on-hand quantity (the
	// maximum across all records sharing the identity) without mutating
	// anything. A record lagging behind its duplicates never under-reports
	// available stock.
	CurrentQuantityTx(ctx context.Context, tx *gorm.DB, c *model.Component) (decimal.Decimal, error)
}

type ledgerService struct {
	components repository.ComponentRepository
	identity   IdentityService
}

func NewLedgerService(components repository.ComponentRepository, identity IdentityService) LedgerService {
	return &ledgerService{components: components, identity: identity}
}

func (s *ledgerService) CurrentQuantityTx(ctx context.Context, tx *gorm.DB, c *model.Component) (decimal.Decimal, error) {
	dups, err := s.identity.FindDuplicatesTx(tx, c)
	if err != nil {
		return decimal.Zero, err
	}
	return maxQuantity(dups, c.QuantityInStock), nil
}

func (s *ledgerService) ApplyDeltaTx(ctx context.Context, tx *gorm.DB, c *model.Component, delta decimal.Decimal) (decimal.Decimal, error) {
	dups, err := s.identity.FindDuplicatesTx(tx, c)
	if err != nil {
		return decimal.Zero, err
	}

	current := maxQuantity(dups, c.QuantityInStock)
	next := current.Add(delta)
	if next.IsNegative() {
		// Legacy drift can leave duplicates under-counted; clamp rather
		// than fail. Callers that need a hard guarantee validate first.
		log.Warn().
			Str("component", c.ID.String()).
			Str("current", current.String()).
			Str("delta", delta.String()).
			Msg("stock delta clamped at zero")
		next = decimal.Zero
	}

	for i := range dups {
		if err := s.components.UpdateQuantityTx(tx, dups[i].ID, next); err != nil {
			return decimal.Zero, err
		}
		dups[i].QuantityInStock = next
	}
	// Keep the caller's in-memory record in step with the write.
	c.QuantityInStock = next

	return next, nil
}

// maxQuantity returns the maximum on-hand quantity across the duplicate set,
// falling back to own only when the set is empty. The caller's in-memory
// quantity never participates otherwise: a handle read before an earlier
// delta in the same transaction would resurrect the pre-delta value.
func maxQuantity(dups []model.Component, own decimal.Decimal) decimal.Decimal {
	if len(dups) == 0 {
		return own
	}
	max := dups[0].QuantityInStock
	for _, d := range dups[1:] {
		if d.QuantityInStock.GreaterThan(max) {
			max = d.QuantityInStock
		}
	}
	return max
}
