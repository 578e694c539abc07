package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"farmavida-master/services/billing"
	"farmavida-master/services/plan"
	"farmavida-master/services/tenant"
	"farmavida-master/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakePlans map[string]*plan.Plan

func (f fakePlans) GetByCode(_ context.Context, code string) (*plan.Plan, error) {
	if p, ok := f[code]; ok {
		return p, nil
	}
	return nil, plan.ErrNotFound
}

type fakePayments map[string][]*billing.Payment

func (f fakePayments) Payments(_ context.Context, tenantID string) ([]*billing.Payment, error) {
	return f[tenantID], nil
}

var now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &tenant.Tenant{}, &AccessLog{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	features, err := plan.NormalizeFeatures([]byte(`{"cashback": true, "curva_abc": true}`))
	require.NoError(t, err)

	svc := newService(db, node,
		tenant.NewStore(tenant.StoreParams{DB: db, Node: node}),
		fakePlans{"START": {Code: "START", Name: "Start", PriceMonth: 199, Features: datatypes.NewJSONType(features)}},
		fakePayments{"t1": {{ID: "p1", TenantID: "t1", Amount: 199}}},
	)
	svc.now = func() time.Time { return now }

	due := now.Add(36 * time.Hour)
	require.NoError(t, db.Create(&tenant.Tenant{ID: "t1", DisplayName: "Ativa", Slug: "farmacia-ativa", Status: tenant.StatusActive, PlanCode: "START", NextPaymentDueAt: &due}).Error)
	require.NoError(t, db.Create(&tenant.Tenant{ID: "t2", DisplayName: "Bloqueada", Slug: "farmacia-bloqueada", Status: tenant.StatusBlocked, PlanCode: "START"}).Error)
	require.NoError(t, db.Create(&tenant.Tenant{ID: "t3", DisplayName: "Sem plano", Slug: "sem-plano", Status: tenant.StatusTrial, PlanCode: "GONE"}).Error)
	return svc, db
}

func TestLicenseStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.LicenseStatus(ctx, "missing")
	require.NoError(t, err)
	require.False(t, resp.Success)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = svc.LicenseStatus(ctx, "t2")
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, LicenseStatus{Status: tenant.StatusBlocked}, resp.Data)

	resp, err = svc.LicenseStatus(ctx, "farmacia-ativa")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	status := resp.Data.(LicenseStatus)
	require.Equal(t, tenant.StatusActive, status.Status)
	require.Equal(t, "Start", status.PlanName)
	require.Equal(t, 199.0, status.PlanPrice)
	require.Equal(t, 2, status.DaysRemaining)
	require.True(t, status.Features["curve_abc"])
	require.True(t, status.Features["cashback"])
	require.False(t, status.Features["nota_fiscal"])
	require.Equal(t, now, *status.ServerTimestamp)
}

func TestLicenseStatusWithMissingPlan(t *testing.T) {
	svc, _ := newTestService(t)
	resp, err := svc.LicenseStatus(context.Background(), "t3")
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Empty(t, resp.Data.(LicenseStatus).Features)
}

func TestFeatures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Features(ctx, "t1")
	require.NoError(t, err)
	require.True(t, resp.Data.(plan.Features).Has(plan.CapCurvaABC))

	resp, err = svc.Features(ctx, "t3")
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestPaymentsHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.PaymentsHistory(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, resp.Data.([]*billing.Payment), 1)

	resp, err = svc.PaymentsHistory(ctx, "t2")
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	require.Empty(t, resp.Data.([]*billing.Payment))
}

func TestLogAccess(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resp, err := svc.LogAccess(ctx, AccessRequest{TenantID: "t1"})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for _, ref := range []string{"t1", "t2", "ghost"} {
		resp, err = svc.LogAccess(ctx, AccessRequest{TenantID: ref, UserID: "u1", Origin: "store", Device: "Chrome"})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		require.Equal(t, true, resp.Data.(map[string]any)["logged"])
	}

	logs, err := svc.AccessLogs(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	byTenant := map[string]*AccessLog{}
	for _, l := range logs {
		byTenant[l.TenantID] = l
	}
	require.Equal(t, AccessSuccess, byTenant["t1"].Status)
	require.Equal(t, AccessDenied, byTenant["t2"].Status)
	require.Equal(t, "Status: blocked", byTenant["t2"].Message)
	require.Equal(t, AccessDenied, byTenant["ghost"].Status)
	require.Equal(t, "Tenant not found", byTenant["ghost"].Message)

	only, err := svc.AccessLogs(ctx, "t1", 0)
	require.NoError(t, err)
	require.Len(t, only, 1)
}
