package accounts

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cleared-dev/books/internal/model"
)

// Loader fetches a tenant's chart of accounts in flat form.
type Loader interface {
	GetTenant(ctx context.Context, id uuid.UUID) (model.Tenant, error)
	ListGroups(ctx context.Context, tenantID uuid.UUID) ([]model.LedgerGroup, error)
	ListLedgers(ctx context.Context, tenantID uuid.UUID) ([]model.Ledger, error)
}

// Service builds charts from storage.
type Service struct {
	loader Loader
}

// NewService creates an accounts Service.
func NewService(loader Loader) *Service {
	return &Service{loader: loader}
}

// Load fetches the tenant's chart. Unknown tenants return model.ErrNotFound.
func (s *Service) Load(ctx context.Context, tenantID uuid.UUID) (*Chart, error) {
	if _, err := s.loader.GetTenant(ctx, tenantID); err != nil {
		return nil, err
	}
	groups, err := s.loader.ListGroups(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	ledgers, err := s.loader.ListLedgers(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing ledgers: %w", err)
	}
	return NewChart(groups, ledgers)
}

// GroupTree returns the tenant's group forest, optionally for one nature.
func (s *Service) GroupTree(ctx context.Context, tenantID uuid.UUID, nature model.Nature) ([]*GroupNode, error) {
	chart, err := s.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return chart.Tree(nature), nil
}
