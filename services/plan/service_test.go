package plan

import (
	"context"
	"errors"
	"testing"

	"farmavida-master/pkg/errutil"
	"farmavida-master/services/tenant"
	"farmavida-master/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &Plan{}, &tenant.Tenant{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(Params{DB: db, Node: node}), db
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Seed(ctx, Defaults())
	require.NoError(t, err)
	require.Equal(t, 4, n)

	n, err = svc.Seed(ctx, Defaults())
	require.NoError(t, err)
	require.Zero(t, n)

	plans, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, plans, 4)
	require.Equal(t, "START", plans[0].Code)
	require.Equal(t, 199.0, plans[0].PriceMonth)
	require.Equal(t, 500, plans[0].Limits.Data().MaxClients)
	require.Equal(t, "ENTERPRISE", plans[3].Code)
	require.True(t, plans[3].Features.Data().Has(CapListaInteligente))
}

func TestCreateAndGetByCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Code: "basic", Name: "Basic", PriceMonth: 99})
	require.NoError(t, err)
	require.Equal(t, "BASIC", p.Code)
	require.True(t, p.IsActive)

	got, err := svc.GetByCode(ctx, " basic ")
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	ok, err := svc.PlanExists(ctx, "BASIC")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.PlanExists(ctx, "GHOST")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Create(ctx, CreateRequest{Code: "BASIC", Name: "Again"})
	require.ErrorIs(t, err, ErrCodeTaken)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), CreateRequest{Code: "", Name: "x", PriceMonth: -1})
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusValidationFailed, be.Code)
}

func TestUpdateInvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Code: "GOLD", Name: "Gold", PriceMonth: 10})
	require.NoError(t, err)

	_, err = svc.GetByCode(ctx, "GOLD")
	require.NoError(t, err)

	price := 20.0
	inactive := false
	_, err = svc.Update(ctx, p.ID, UpdateRequest{PriceMonth: &price, IsActive: &inactive})
	require.NoError(t, err)

	got, err := svc.GetByCode(ctx, "GOLD")
	require.NoError(t, err)
	require.Equal(t, 20.0, got.PriceMonth)

	ok, err := svc.PlanExists(ctx, "GOLD")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDeleteRejectsPlanInUse(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, CreateRequest{Code: "START", Name: "Start"})
	require.NoError(t, err)

	require.NoError(t, db.Create(&tenant.Tenant{ID: "1", DisplayName: "Farmácia", Slug: "farmacia", PlanCode: "START"}).Error)
	require.ErrorIs(t, svc.Delete(ctx, p.ID), ErrInUse)

	require.NoError(t, db.Delete(&tenant.Tenant{}, "id = ?", "1").Error)
	require.NoError(t, svc.Delete(ctx, p.ID))

	_, err = svc.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLegacyFeatureRowsAreNormalizedOnRead(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	require.NoError(t, db.Exec(
		`INSERT INTO plans (id, code, name, price_month, price_year, limits, features, is_active) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		"9", "LEGACY", "Legacy", 1, 10, `{"max_clients": 1, "max_users": 1}`, `["PDV", "Suporte"]`, true,
	).Error)

	p, err := svc.GetByCode(ctx, "LEGACY")
	require.NoError(t, err)
	require.Equal(t, []string{"PDV", "Suporte"}, p.Features.Data().DisplayBullets)
	require.Len(t, p.Features.Data().Capabilities, len(KnownCapabilities))
}
