package service

import (
	"context"
	"encoding/json"

	"stocktrace/internal/dmcode"
	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AssociationService owns the consumption edges between a component's stock
// instance and the parent assembly/product instance it was consumed into.
// Edges are stored as the denormalized parent code on the stock item.
type AssociationService interface {
	// Associate links the component instance to the parent assembly code.
	// Fails with AlreadyConsumedError when the instance carries a parent
	// link, NotFoundError when it does not exist.
	Associate(ctx context.Context, componentCode, parentCode string, actor *model.Operator) error

	// CountAssociated counts the stock instances of the given child
	// identity whose parent link equals parentCode. Exact matches are
	// queried first; when none exist the simplified alias form of the code
	// is tried, because historical rows may only store the alias. Results
	// are unioned and de-duplicated by instance id.
	CountAssociated(ctx context.Context, parentCode string, child *model.Component) (int64, error)

	// ListAssociated returns every instance consumed into parentCode,
	// regardless of component, using the same exact-then-alias lookup.
	ListAssociated(ctx context.Context, parentCode string) ([]model.StockItem, error)
}

type associationService struct {
	stockItems repository.StockItemRepository
	audit      repository.AuditRepository
	identity   IdentityService
}

func NewAssociationService(
	stockItems repository.StockItemRepository,
	audit repository.AuditRepository,
	identity IdentityService,
) AssociationService {
	return &associationService{stockItems: stockItems, audit: audit, identity: identity}
}

func (s *associationService) Associate(ctx context.Context, componentCode, parentCode string, actor *model.Operator) error {
	item, err := s.stockItems.FindByCode(ctx, componentCode)
	if err != nil {
		return &NotFoundError{Kind: "stock item", Ref: componentCode}
	}
	if item.Consumed() {
		return &AlreadyConsumedError{Code: componentCode, ParentCode: *item.ParentCode}
	}

	return runTx(ctx, s.stockItems.DB(), func(tx *gorm.DB) error {
		item.ParentCode = &parentCode
		item.Status = model.StockAssociated
		if err := s.stockItems.SaveTx(tx, item); err != nil {
			return err
		}
		ev := &model.AuditEvent{
			Code:   item.Code,
			Action: model.ActionAssociate,
			Meta:   encodeMeta(snapshotMeta(item.Component, actor, model.EventMeta{AssemblyCode: parentCode})),
		}
		return s.audit.CreateTx(tx, ev)
	})
}

func (s *associationService) ListAssociated(ctx context.Context, parentCode string) ([]model.StockItem, error) {
	exact, err := s.stockItems.ListByParentCode(ctx, parentCode)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	matches := make([]model.StockItem, 0, len(exact))
	for _, it := range exact {
		if !seen[it.ID] {
			seen[it.ID] = true
			matches = append(matches, it)
		}
	}

	if len(matches) == 0 {
		alias := dmcode.Parse(parentCode).Alias()
		if alias != parentCode {
			byAlias, err := s.stockItems.ListByParentCode(ctx, alias)
			if err != nil {
				return nil, err
			}
			for _, it := range byAlias {
				if !seen[it.ID] {
					seen[it.ID] = true
					matches = append(matches, it)
				}
			}
		}
	}
	return matches, nil
}

func (s *associationService) CountAssociated(ctx context.Context, parentCode string, child *model.Component) (int64, error) {
	matches, err := s.ListAssociated(ctx, parentCode)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, nil
	}

	dups, err := s.identity.FindDuplicatesTx(nil, child)
	if err != nil {
		return 0, err
	}
	childIDs := map[uuid.UUID]bool{}
	for _, d := range dups {
		childIDs[d.ID] = true
	}

	var n int64
	for _, it := range matches {
		if childIDs[it.ComponentID] {
			n++
		}
	}
	return n, nil
}

// snapshotMeta freezes the component's identity fields and the acting
// operator into the event payload. History reads these snapshots instead of
// the live master data.
func snapshotMeta(c *model.Component, actor *model.Operator, base model.EventMeta) model.EventMeta {
	if c != nil {
		base.ComponentName = c.Name
		base.ComponentDescription = stringValue(c.Description)
		base.RevisionLabel = c.RevisionLabel()
		rev := c.Revision
		base.RevisionIndex = &rev
	}
	if actor != nil {
		base.OperatorID = actor.ID.String()
		base.OperatorEmail = actor.Email
	}
	return base
}

func encodeMeta(m model.EventMeta) string {
	data, err := json.Marshal(m)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode audit meta")
		return ""
	}
	return string(data)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
