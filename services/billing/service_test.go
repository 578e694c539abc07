package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmavida-master/pkg/config"
	"farmavida-master/services/plan"
	"farmavida-master/services/tenant"
	"farmavida-master/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakePlans map[string]*plan.Plan

func (f fakePlans) GetByCode(_ context.Context, code string) (*plan.Plan, error) {
	p, ok := f[code]
	if !ok {
		return nil, plan.ErrNotFound
	}
	return p, nil
}

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t, &tenant.Tenant{}, &Invoice{}, &Payment{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Billing.CheckoutBaseURL = "https://master.farmavida.app/billing/checkout"
	cfg.Billing.PortalURL = "https://pay.example.com/portal"

	svc := newService(db, node, fakePlans{
		"START":   {Code: "START", PriceMonth: 199},
		"PREMIUM": {Code: "PREMIUM", PriceMonth: 399.9},
	}, nil, cfg)
	svc.now = func() time.Time { return fixedNow }
	return svc, db
}

func seedTenant(t *testing.T, db *gorm.DB, id string, status tenant.Status, due *time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&tenant.Tenant{
		ID:               id,
		DisplayName:      "Farmácia " + id,
		Slug:             "farmacia-" + id,
		Status:           status,
		PlanCode:         "START",
		NextPaymentDueAt: due,
		BlockedReason:    "old reason",
	}).Error)
}

func ptr(t time.Time) *time.Time { return &t }

func TestCheckoutAndPortalURLs(t *testing.T) {
	svc, db := newTestService(t)
	seedTenant(t, db, "t1", tenant.StatusActive, nil)

	u, err := svc.CreateCheckoutSession(context.Background(), "t1", "PREMIUM")
	require.NoError(t, err)
	require.Equal(t, "https://master.farmavida.app/billing/checkout?amount=399.9&planId=PREMIUM&tenantId=t1", u)

	_, err = svc.CreateCheckoutSession(context.Background(), "t1", "GOLD")
	require.ErrorIs(t, err, plan.ErrNotFound)

	_, err = svc.CreateCheckoutSession(context.Background(), "nope", "START")
	require.ErrorIs(t, err, tenant.ErrNotFound)

	require.Equal(t, "https://pay.example.com/portal?tenantId=t1", svc.BillingPortalURL("t1"))
}

func TestProcessSuccessfulPayment(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedTenant(t, db, "t1", tenant.StatusBlocked, nil)

	receipt, err := svc.ProcessSuccessfulPayment(ctx, PaymentRequest{TenantID: "t1", PlanCode: "premium", Amount: 399.9, Method: "pix"})
	require.NoError(t, err)

	require.Equal(t, InvoiceStatusPaid, receipt.Invoice.Status)
	require.Equal(t, CurrencyBRL, receipt.Invoice.Currency)
	require.Equal(t, PaymentStatusConfirmed, receipt.Payment.Status)
	require.Equal(t, receipt.Invoice.ID, receipt.Payment.InvoiceID)

	tn := receipt.Tenant
	require.Equal(t, tenant.StatusActive, tn.Status)
	require.Equal(t, "PREMIUM", tn.PlanCode)
	require.Empty(t, tn.BlockedReason)
	require.True(t, fixedNow.Equal(*tn.CurrentPeriodStart))
	require.True(t, fixedNow.AddDate(0, 0, 30).Equal(*tn.NextPaymentDueAt))
	require.True(t, tn.CurrentPeriodEnd.Equal(*tn.NextPaymentDueAt))

	history, err := svc.History(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, history, 1)

	payments, err := svc.Payments(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
}

func TestProcessPaymentForUnknownTenantWritesNothing(t *testing.T) {
	svc, db := newTestService(t)

	_, err := svc.ProcessSuccessfulPayment(context.Background(), PaymentRequest{TenantID: "ghost", PlanCode: "START", Amount: 199, Method: "boleto"})
	require.ErrorIs(t, err, tenant.ErrNotFound)

	var n int64
	require.NoError(t, db.Model(&Invoice{}).Count(&n).Error)
	require.Zero(t, n)
}

func TestProcessPaymentValidates(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ProcessSuccessfulPayment(context.Background(), PaymentRequest{TenantID: "t1", PlanCode: "START", Amount: 0, Method: "cash"})
	require.Error(t, err)
}

func TestBlockTenant(t *testing.T) {
	svc, db := newTestService(t)
	seedTenant(t, db, "t1", tenant.StatusActive, nil)

	require.NoError(t, svc.BlockTenant(context.Background(), "t1", "Fraude"))
	require.ErrorIs(t, svc.BlockTenant(context.Background(), "nope", "x"), tenant.ErrNotFound)

	var got tenant.Tenant
	require.NoError(t, db.First(&got, "id = ?", "t1").Error)
	require.Equal(t, tenant.StatusBlocked, got.Status)
	require.Equal(t, "Fraude", got.BlockedReason)
}

func TestMonitorSubscriptions(t *testing.T) {
	svc, db := newTestService(t)

	seedTenant(t, db, "current", tenant.StatusActive, ptr(fixedNow.AddDate(0, 0, 3)))
	seedTenant(t, db, "late", tenant.StatusActive, ptr(fixedNow.AddDate(0, 0, -2)))
	seedTenant(t, db, "very-late", tenant.StatusTrial, ptr(fixedNow.AddDate(0, 0, -6)))
	seedTenant(t, db, "suspended", tenant.StatusSuspended, ptr(fixedNow.AddDate(0, 0, -30)))
	seedTenant(t, db, "no-due", tenant.StatusActive, nil)

	report, err := svc.MonitorSubscriptions(context.Background(), fixedNow)
	require.NoError(t, err)
	require.Equal(t, 2, report.Checked)
	require.Equal(t, []string{"late"}, report.PastDue)
	require.Equal(t, []string{"very-late"}, report.Blocked)

	statusOf := func(id string) tenant.Tenant {
		var tn tenant.Tenant
		require.NoError(t, db.First(&tn, "id = ?", id).Error)
		return tn
	}
	require.Equal(t, tenant.StatusActive, statusOf("current").Status)
	require.Equal(t, tenant.StatusPastDue, statusOf("late").Status)
	require.Equal(t, "Pagamento em atraso.", statusOf("late").BlockedReason)
	require.Equal(t, tenant.StatusBlocked, statusOf("very-late").Status)
	require.Equal(t, "Pagamento atrasado há mais de 5 dias.", statusOf("very-late").BlockedReason)
	require.Equal(t, tenant.StatusSuspended, statusOf("suspended").Status)
}

func TestDaysRemaining(t *testing.T) {
	require.Zero(t, DaysRemaining(fixedNow, nil))
	require.Equal(t, 2, DaysRemaining(fixedNow, ptr(fixedNow.Add(36*time.Hour))))
	require.Zero(t, DaysRemaining(fixedNow, ptr(fixedNow.Add(-36*time.Hour))))
}

func TestNextRunTime(t *testing.T) {
	base := time.Date(2026, 3, 10, 2, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC), nextRunTime(base, 3, 0))

	later := time.Date(2026, 3, 10, 4, 0, 0, 0, time.UTC)
	require.Equal(t, time.Date(2026, 3, 11, 3, 0, 0, 0, time.UTC), nextRunTime(later, 3, 0))
}

type fakeMonitor struct {
	err error
	at  time.Time
}

func (f *fakeMonitor) MonitorSubscriptions(_ context.Context, now time.Time) (*MonitorReport, error) {
	f.at = now
	return &MonitorReport{}, f.err
}

func TestHandleMonitorRun(t *testing.T) {
	m := &fakeMonitor{}
	h := NewTaskHandler(m)
	h.now = func() time.Time { return fixedNow }

	require.NoError(t, h.HandleMonitorRun(context.Background(), asynq.NewTask("billing:monitor:run", nil)))
	require.Equal(t, fixedNow, m.at)

	m.err = errors.New("db down")
	require.Error(t, h.HandleMonitorRun(context.Background(), asynq.NewTask("billing:monitor:run", nil)))
}

type fakeEnqueuer struct {
	types []string
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.types = append(f.types, t.Type())
	return &asynq.TaskInfo{}, nil
}

func TestSchedulerEnqueuesMonitorTask(t *testing.T) {
	e := &fakeEnqueuer{}
	s := NewScheduler(e, &config.Config{})
	s.enqueue(context.Background())
	require.Equal(t, []string{"billing:monitor:run"}, e.types)
}
