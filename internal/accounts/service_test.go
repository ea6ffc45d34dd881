package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/books/internal/model"
)

type fakeLoader struct {
	tenant  model.Tenant
	groups  []model.LedgerGroup
	ledgers []model.Ledger
}

func (f *fakeLoader) GetTenant(_ context.Context, id uuid.UUID) (model.Tenant, error) {
	if id != f.tenant.ID {
		return model.Tenant{}, model.NotFound("tenant", id)
	}
	return f.tenant, nil
}

func (f *fakeLoader) ListGroups(context.Context, uuid.UUID) ([]model.LedgerGroup, error) {
	return f.groups, nil
}

func (f *fakeLoader) ListLedgers(context.Context, uuid.UUID) ([]model.Ledger, error) {
	return f.ledgers, nil
}

func TestGroupTree(t *testing.T) {
	tenant := model.Tenant{ID: uuid.New(), Name: "Acme"}
	groups, ledgers := DefaultChart("trading", tenant.ID)
	svc := NewService(&fakeLoader{tenant: tenant, groups: groups, ledgers: ledgers})

	tree, err := svc.GroupTree(context.Background(), tenant.ID, model.NatureIncome)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "Sales Accounts", tree[0].Group.Name)
}

func TestGroupTree_UnknownTenant(t *testing.T) {
	svc := NewService(&fakeLoader{tenant: model.Tenant{ID: uuid.New()}})

	_, err := svc.GroupTree(context.Background(), uuid.New(), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotFound))
}
