package locations

import (
	"context"
	"fmt"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/security"
	"stockyard/internal/core/tx"
	"stockyard/pkg/logger"
)

// StockChecker reports whether stock records reference a location.
// Implemented by the ledger service; keeps this package from depending
// on ledger internals.
type StockChecker interface {
	HasStockAt(ctx context.Context, locationID id.ID) (bool, error)
}

// Service provides business logic for the location hierarchy.
type Service struct {
	repo      Repository
	txManager tx.Manager
	stock     StockChecker
}

// NewService creates a new location service.
func NewService(repo Repository, txManager tx.Manager, stock StockChecker) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		stock:     stock,
	}
}

// Create validates hierarchy invariants and persists a new location.
// Requires the ManageLocations capability.
func (s *Service) Create(ctx context.Context, loc *Location) error {
	if err := security.GetActor(ctx).Require(security.CapManageLocations); err != nil {
		return err
	}

	if err := loc.Validate(ctx); err != nil {
		return err
	}

	if err := s.resolveParent(ctx, loc); err != nil {
		return err
	}

	if loc.Type == TypeMainStore {
		existing, err := s.repo.FindMainStore(ctx)
		if err != nil {
			return fmt.Errorf("find main store: %w", err)
		}
		if existing != nil {
			return apperror.NewConflict("A main store already exists").
				WithDetail("existing_id", existing.ID.String())
		}
	}

	loc.CreatedBy = security.GetActorID(ctx)
	loc.UpdatedBy = loc.CreatedBy

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, loc)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "location created",
		"location_id", loc.ID,
		"type", loc.Type,
		"name", loc.Name,
	)
	return nil
}

// resolveParent checks the parent tier invariant. A BRANCH without an
// explicit parent attaches to the MAIN_STORE; an INVENTORY_POINT must
// name its parent.
func (s *Service) resolveParent(ctx context.Context, loc *Location) error {
	if loc.Type == TypeMainStore {
		return nil
	}

	if loc.ParentID == nil {
		if loc.Type != TypeBranch {
			return apperror.NewValidation("parent is required").
				WithDetail("field", "parentId").
				WithDetail("type", string(loc.Type))
		}
		main, err := s.repo.FindMainStore(ctx)
		if err != nil {
			return fmt.Errorf("find main store: %w", err)
		}
		if main == nil {
			return apperror.NewValidation("no main store exists to attach the branch to").
				WithDetail("field", "parentId")
		}
		loc.ParentID = &main.ID
		return nil
	}

	parent, err := s.repo.GetByID(ctx, *loc.ParentID)
	if err != nil {
		return err
	}
	if !CanParent(parent, loc.Type) {
		return apperror.NewValidation("parent must be of a strictly higher tier").
			WithDetail("field", "parentId").
			WithDetail("parent_type", string(parent.Type)).
			WithDetail("type", string(loc.Type))
	}
	return nil
}

// GetByID retrieves a location.
func (s *Service) GetByID(ctx context.Context, locationID id.ID) (*Location, error) {
	return s.repo.GetByID(ctx, locationID)
}

// ListAll returns all live locations.
func (s *Service) ListAll(ctx context.Context) ([]*Location, error) {
	return s.repo.List(ctx, ListFilter{})
}

// ListByType returns live locations of the given type.
func (s *Service) ListByType(ctx context.Context, locType LocationType) ([]*Location, error) {
	if !ValidType(locType) {
		return nil, apperror.NewValidation("invalid location type").
			WithDetail("field", "type").
			WithDetail("value", string(locType))
	}
	return s.repo.List(ctx, ListFilter{Type: &locType})
}

// Update changes a location's name and assignment.
// Type and parent are fixed after creation; re-tiering a node would
// silently re-home its subtree.
func (s *Service) Update(ctx context.Context, locationID id.ID, name string, assignedUserID *id.ID) (*Location, error) {
	if err := security.GetActor(ctx).Require(security.CapManageLocations); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, apperror.NewValidation("name is required").WithDetail("field", "name")
	}

	loc, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	loc.Name = name
	loc.AssignedUserID = assignedUserID
	loc.UpdatedBy = security.GetActorID(ctx)
	loc.Touch()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, loc)
	})
	if err != nil {
		return nil, err
	}

	return loc, nil
}

// Delete soft-deletes a location. Fails with Conflict while child
// locations or stock records still reference it.
func (s *Service) Delete(ctx context.Context, locationID id.ID) error {
	if err := security.GetActor(ctx).Require(security.CapManageLocations); err != nil {
		return err
	}

	if _, err := s.repo.GetByID(ctx, locationID); err != nil {
		return err
	}

	hasChildren, err := s.repo.HasChildren(ctx, locationID)
	if err != nil {
		return fmt.Errorf("check children: %w", err)
	}
	if hasChildren {
		return apperror.NewConflict("Location has child locations").
			WithDetail("location_id", locationID.String())
	}

	hasStock, err := s.stock.HasStockAt(ctx, locationID)
	if err != nil {
		return fmt.Errorf("check stock: %w", err)
	}
	if hasStock {
		return apperror.NewConflict("Location has stock records").
			WithDetail("location_id", locationID.String())
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SetDeletionMark(ctx, locationID, true)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "location deleted", "location_id", locationID)
	return nil
}

// ResolveDefaultTarget descends from the given location to the finest
// granularity: MAIN_STORE to its first BRANCH, then to that branch's
// first INVENTORY_POINT. Stock operations always land on the finest
// available tier; higher tiers are organizational groupings.
func (s *Service) ResolveDefaultTarget(ctx context.Context, locationID id.ID) (*Location, error) {
	loc, err := s.repo.GetByID(ctx, locationID)
	if err != nil {
		return nil, err
	}

	if loc.Type == TypeMainStore {
		branch, err := s.repo.FirstChild(ctx, loc.ID, TypeBranch)
		if err != nil {
			return nil, fmt.Errorf("first branch: %w", err)
		}
		if branch == nil {
			return loc, nil
		}
		loc = branch
	}

	if loc.Type == TypeBranch {
		point, err := s.repo.FirstChild(ctx, loc.ID, TypeInventoryPoint)
		if err != nil {
			return nil, fmt.Errorf("first inventory point: %w", err)
		}
		if point == nil {
			return loc, nil
		}
		loc = point
	}

	return loc, nil
}
