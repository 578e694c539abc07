package billing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"farmavida-master/pkg/config"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/metrics"
	"farmavida-master/pkg/repository"
	"farmavida-master/pkg/sequence"
	"farmavida-master/pkg/validation"
	"farmavida-master/services/plan"
	"farmavida-master/services/tenant"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	defaultGraceDays  = 5
	defaultPeriodDays = 30
	monitorWorkers    = 8
)

// PlanLookup resolves the plan being paid for.
type PlanLookup interface {
	GetByCode(ctx context.Context, code string) (*plan.Plan, error)
}

type Service struct {
	db         *gorm.DB
	tenants    repository.Repository[tenant.Tenant]
	invoices   repository.Repository[Invoice]
	plans      PlanLookup
	node       *snowflake.Node
	seq        sequence.Generator
	graceDays  int
	periodDays int
	checkout   string
	portal     string
	now        func() time.Time
}

type Params struct {
	fx.In
	DB     *gorm.DB
	Config *config.Config
	Node   *snowflake.Node
	Plans  *plan.Service
	Seq    sequence.Generator `optional:"true"`
}

func NewService(p Params) *Service {
	return newService(p.DB, p.Node, p.Plans, p.Seq, p.Config)
}

func newService(db *gorm.DB, node *snowflake.Node, plans PlanLookup, seq sequence.Generator, cfg *config.Config) *Service {
	s := &Service{
		db:         db,
		tenants:    repository.ProvideStore[tenant.Tenant](db),
		invoices:   repository.ProvideStore[Invoice](db),
		plans:      plans,
		node:       node,
		seq:        seq,
		graceDays:  cfg.Billing.GraceDays,
		periodDays: cfg.Billing.PeriodDays,
		checkout:   cfg.Billing.CheckoutBaseURL,
		portal:     cfg.Billing.PortalURL,
		now:        time.Now,
	}
	if s.graceDays <= 0 {
		s.graceDays = defaultGraceDays
	}
	if s.periodDays <= 0 {
		s.periodDays = defaultPeriodDays
	}
	if s.checkout == "" {
		s.checkout = "/billing/checkout"
	}
	if s.portal == "" {
		s.portal = "/billing/portal"
	}
	return s
}

func (s *Service) getTenant(ctx context.Context, id string) (*tenant.Tenant, error) {
	t, err := s.tenants.FindOne(ctx, &tenant.Tenant{ID: id})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tenant.ErrNotFound
	}
	return t, nil
}

// CreateCheckoutSession returns the hosted checkout URL for paying planCode
// at its monthly price.
func (s *Service) CreateCheckoutSession(ctx context.Context, tenantID, planCode string) (string, error) {
	if _, err := s.getTenant(ctx, tenantID); err != nil {
		return "", err
	}
	p, err := s.plans.GetByCode(ctx, planCode)
	if err != nil {
		return "", err
	}

	logger.FromContext(ctx).Info("checkout session created",
		zap.String("tenant_id", tenantID),
		zap.String("plan", p.Code),
	)

	q := url.Values{}
	q.Set("tenantId", tenantID)
	q.Set("planId", p.Code)
	q.Set("amount", strconv.FormatFloat(p.PriceMonth, 'f', -1, 64))
	return s.checkout + "?" + q.Encode(), nil
}

func (s *Service) BillingPortalURL(tenantID string) string {
	return s.portal + "?" + url.Values{"tenantId": {tenantID}}.Encode()
}

type PaymentRequest struct {
	TenantID string  `json:"tenantId" validate:"required"`
	PlanCode string  `json:"planId" validate:"required"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Method   string  `json:"method" validate:"required,oneof=pix boleto credit_card"`
}

type Receipt struct {
	Invoice *Invoice       `json:"invoice"`
	Payment *Payment       `json:"payment"`
	Tenant  *tenant.Tenant `json:"tenant"`
}

// ProcessSuccessfulPayment records a paid invoice with its confirmed payment
// and opens a new billing period, all in one transaction.
func (s *Service) ProcessSuccessfulPayment(ctx context.Context, req PaymentRequest) (*Receipt, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	req.PlanCode = strings.ToUpper(strings.TrimSpace(req.PlanCode))

	if _, err := s.plans.GetByCode(ctx, req.PlanCode); err != nil {
		return nil, err
	}

	now := s.now()
	nextDue := now.AddDate(0, 0, s.periodDays)

	inv := &Invoice{
		ID:       s.node.Generate().String(),
		TenantID: req.TenantID,
		PlanCode: req.PlanCode,
		Amount:   req.Amount,
		Currency: CurrencyBRL,
		Status:   InvoiceStatusPaid,
		DueDate:  now,
		PaidAt:   &now,
	}
	if s.seq != nil {
		if code, err := s.seq.NextInvoiceCode(ctx); err == nil {
			inv.Code = code
		} else {
			logger.FromContext(ctx).Warn("invoice code unavailable", zap.Error(err))
		}
	}
	pay := &Payment{
		ID:          s.node.Generate().String(),
		TenantID:    req.TenantID,
		InvoiceID:   inv.ID,
		Amount:      req.Amount,
		Method:      req.Method,
		Status:      PaymentStatusConfirmed,
		ConfirmedAt: &now,
	}

	var updated *tenant.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenants := s.tenants.WithTrx(tx)
		if _, err := s.getTenantTx(ctx, tenants, req.TenantID); err != nil {
			return err
		}
		if err := tx.Create(inv).Error; err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := tx.Create(pay).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := tenants.Update(ctx, req.TenantID, map[string]any{
			"status":               tenant.StatusActive,
			"plan_code":            req.PlanCode,
			"last_payment_at":      now,
			"current_period_start": now,
			"current_period_end":   nextDue,
			"next_payment_due_at":  nextDue,
			"blocked_reason":       "",
		}); err != nil {
			return fmt.Errorf("open billing period: %w", err)
		}
		t, err := s.getTenantTx(ctx, tenants, req.TenantID)
		updated = t
		return err
	})
	if err != nil {
		logger.FromContext(ctx).Error("payment processing failed", zap.String("tenant_id", req.TenantID), zap.Error(err))
		return nil, err
	}

	metrics.SubscriptionTransitions.WithLabelValues(string(tenant.StatusActive)).Inc()
	logger.FromContext(ctx).Info("payment processed",
		zap.String("tenant_id", req.TenantID),
		zap.String("invoice_id", inv.ID),
		zap.Float64("amount", req.Amount),
		zap.Time("next_due", nextDue),
	)
	return &Receipt{Invoice: inv, Payment: pay, Tenant: updated}, nil
}

func (s *Service) getTenantTx(ctx context.Context, repo repository.Repository[tenant.Tenant], id string) (*tenant.Tenant, error) {
	t, err := repo.FindOne(ctx, &tenant.Tenant{ID: id})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, tenant.ErrNotFound
	}
	return t, nil
}

func (s *Service) BlockTenant(ctx context.Context, id, reason string) error {
	if err := s.tenants.Update(ctx, id, map[string]any{
		"status":         tenant.StatusBlocked,
		"blocked_reason": reason,
	}); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tenant.ErrNotFound
		}
		return err
	}
	metrics.SubscriptionTransitions.WithLabelValues(string(tenant.StatusBlocked)).Inc()
	logger.FromContext(ctx).Info("tenant blocked", zap.String("tenant_id", id), zap.String("reason", reason))
	return nil
}

// History lists a tenant's invoices, newest first.
func (s *Service) History(ctx context.Context, tenantID string) ([]*Invoice, error) {
	var out []*Invoice
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// Payments lists a tenant's confirmed payments, newest first.
func (s *Service) Payments(ctx context.Context, tenantID string) ([]*Payment, error) {
	var out []*Payment
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

type MonitorReport struct {
	Checked int      `json:"checked"`
	PastDue []string `json:"past_due"`
	Blocked []string `json:"blocked"`
	Failed  []string `json:"failed,omitempty"`
}

// MonitorSubscriptions moves overdue active or trial tenants to past_due, or
// to blocked once they are more than the grace period late.
func (s *Service) MonitorSubscriptions(ctx context.Context, now time.Time) (*MonitorReport, error) {
	zapLog := logger.FromContext(ctx)

	var overdue []*tenant.Tenant
	err := s.db.WithContext(ctx).
		Where("status IN ?", []tenant.Status{tenant.StatusActive, tenant.StatusTrial}).
		Where("next_payment_due_at IS NOT NULL AND next_payment_due_at < ?", now).
		Find(&overdue).Error
	if err != nil {
		return nil, err
	}

	report := &MonitorReport{Checked: len(overdue), PastDue: []string{}, Blocked: []string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(monitorWorkers)
	for _, t := range overdue {
		g.Go(func() error {
			status, reason := s.overdueStatus(now, *t.NextPaymentDueAt)
			err := s.tenants.Update(gctx, t.ID, map[string]any{
				"status":         status,
				"blocked_reason": reason,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				zapLog.Error("failed to update overdue tenant", zap.String("tenant_id", t.ID), zap.Error(err))
				report.Failed = append(report.Failed, t.ID)
				return nil
			}
			metrics.SubscriptionTransitions.WithLabelValues(string(status)).Inc()
			zapLog.Info("subscription overdue",
				zap.String("slug", t.Slug),
				zap.String("status", string(status)),
			)
			if status == tenant.StatusBlocked {
				report.Blocked = append(report.Blocked, t.ID)
			} else {
				report.PastDue = append(report.PastDue, t.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *Service) overdueStatus(now, due time.Time) (tenant.Status, string) {
	daysOverdue := now.Sub(due).Hours() / 24
	if daysOverdue > float64(s.graceDays) {
		return tenant.StatusBlocked, fmt.Sprintf("Pagamento atrasado há mais de %d dias.", s.graceDays)
	}
	return tenant.StatusPastDue, "Pagamento em atraso."
}

// DaysRemaining is the whole number of days until due, rounded up and never
// negative.
func DaysRemaining(now time.Time, due *time.Time) int {
	if due == nil {
		return 0
	}
	d := math.Ceil(due.Sub(now).Hours() / 24)
	if d < 0 {
		return 0
	}
	return int(d)
}
