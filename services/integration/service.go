package integration

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/repository"
	"farmavida-master/services/billing"
	"farmavida-master/services/plan"
	"farmavida-master/services/tenant"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TenantFinder interface {
	Get(ctx context.Context, id string) (*tenant.Tenant, error)
	GetBySlug(ctx context.Context, slug string) (*tenant.Tenant, error)
}

type PlanLookup interface {
	GetByCode(ctx context.Context, code string) (*plan.Plan, error)
}

type PaymentLister interface {
	Payments(ctx context.Context, tenantID string) ([]*billing.Payment, error)
}

// Service answers the license and feature checks made by tenant storefronts
// and admin apps.
type Service struct {
	db       *gorm.DB
	logs     repository.Repository[AccessLog]
	tenants  TenantFinder
	plans    PlanLookup
	payments PaymentLister
	node     *snowflake.Node
	now      func() time.Time
}

type Params struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Tenants  *tenant.Store
	Plans    *plan.Service
	Payments *billing.Service
}

func NewService(p Params) *Service {
	return newService(p.DB, p.Node, p.Tenants, p.Plans, p.Payments)
}

func newService(db *gorm.DB, node *snowflake.Node, tenants TenantFinder, plans PlanLookup, payments PaymentLister) *Service {
	return &Service{
		db:       db,
		logs:     repository.ProvideStore[AccessLog](db),
		tenants:  tenants,
		plans:    plans,
		payments: payments,
		node:     node,
		now:      time.Now,
	}
}

// findTenant accepts the tenant id or its slug, since tenant apps are
// routed by slug.
func (s *Service) findTenant(ctx context.Context, ref string) (*tenant.Tenant, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, tenant.ErrNotFound
	}
	t, err := s.tenants.Get(ctx, ref)
	if errors.Is(err, tenant.ErrNotFound) {
		return s.tenants.GetBySlug(ctx, ref)
	}
	return t, err
}

func (s *Service) lookup(ctx context.Context, ref string) (*tenant.Tenant, *Response, error) {
	t, err := s.findTenant(ctx, ref)
	if errors.Is(err, tenant.ErrNotFound) {
		return nil, fail(http.StatusNotFound, "Tenant ID not found", nil), nil
	}
	if err != nil {
		return nil, nil, err
	}
	return t, nil, nil
}

// ExternalFeatures is the flag set exposed to tenant apps. Curva ABC is
// published under its historical key curve_abc.
func ExternalFeatures(f plan.Features) map[string]bool {
	return map[string]bool{
		"cashback":          f.Has(plan.CapCashback),
		"curve_abc":         f.Has(plan.CapCurvaABC),
		"lista_inteligente": f.Has(plan.CapListaInteligente),
		"multi_loja":        f.Has(plan.CapMultiLoja),
		"api_whatsapp":      f.Has(plan.CapAPIWhatsApp),
		"crm_campaigns":     f.Has(plan.CapCRMCampaigns),
		"nota_fiscal":       f.Has(plan.CapNotaFiscal),
	}
}

type LicenseStatus struct {
	Status          tenant.Status   `json:"status"`
	PlanName        string          `json:"plano_atual,omitempty"`
	PlanPrice       float64         `json:"valor_atual,omitempty"`
	DaysRemaining   int             `json:"days_remaining"`
	Features        map[string]bool `json:"features,omitempty"`
	ServerTimestamp *time.Time      `json:"server_timestamp,omitempty"`
}

func (s *Service) LicenseStatus(ctx context.Context, ref string) (*Response, error) {
	t, resp, err := s.lookup(ctx, ref)
	if t == nil {
		return resp, err
	}

	if t.Status == tenant.StatusBlocked {
		return fail(http.StatusForbidden, "Access blocked due to non-payment or administrative action.",
			LicenseStatus{Status: tenant.StatusBlocked, DaysRemaining: 0}), nil
	}

	now := s.now().UTC()
	out := LicenseStatus{
		Status:          t.Status,
		DaysRemaining:   billing.DaysRemaining(now, t.NextPaymentDueAt),
		Features:        map[string]bool{},
		ServerTimestamp: &now,
	}

	p, err := s.plans.GetByCode(ctx, t.PlanCode)
	switch {
	case err == nil:
		out.PlanName = p.Name
		out.PlanPrice = p.PriceMonth
		out.Features = ExternalFeatures(p.Features.Data())
	case errors.Is(err, plan.ErrNotFound):
		logger.FromContext(ctx).Warn("tenant references a missing plan",
			zap.String("tenant_id", t.ID),
			zap.String("plan", t.PlanCode),
		)
	default:
		return nil, err
	}
	return ok(http.StatusOK, out), nil
}

func (s *Service) Features(ctx context.Context, ref string) (*Response, error) {
	t, resp, err := s.lookup(ctx, ref)
	if t == nil {
		return resp, err
	}

	p, err := s.plans.GetByCode(ctx, t.PlanCode)
	if errors.Is(err, plan.ErrNotFound) {
		return fail(http.StatusInternalServerError, "Plan configuration error", nil), nil
	}
	if err != nil {
		return nil, err
	}
	return ok(http.StatusOK, p.Features.Data()), nil
}

func (s *Service) PaymentsHistory(ctx context.Context, ref string) (*Response, error) {
	t, resp, err := s.lookup(ctx, ref)
	if t == nil {
		return resp, err
	}

	payments, err := s.payments.Payments(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*billing.Payment{}
	}
	return ok(http.StatusOK, payments), nil
}

type AccessRequest struct {
	TenantID  string     `json:"tenant_id"`
	UserID    string     `json:"user_id"`
	Origin    string     `json:"origin"`
	IP        string     `json:"ip"`
	Device    string     `json:"device"`
	Timestamp *time.Time `json:"timestamp"`
}

// LogAccess records a login attempt on a tenant app. Attempts on unknown or
// inactive tenants are stored as denied.
func (s *Service) LogAccess(ctx context.Context, req AccessRequest) (*Response, error) {
	if strings.TrimSpace(req.TenantID) == "" || strings.TrimSpace(req.UserID) == "" {
		return fail(http.StatusBadRequest, "Missing tenant_id or user_id", nil), nil
	}

	entry := &AccessLog{
		ID:        s.node.Generate().String(),
		TenantID:  req.TenantID,
		UserID:    req.UserID,
		Origin:    req.Origin,
		IP:        req.IP,
		Device:    req.Device,
		Status:    AccessDenied,
		Message:   "Tenant not found",
		Timestamp: s.now(),
	}
	if entry.Origin == "" {
		entry.Origin = "unknown"
	}
	if req.Timestamp != nil {
		entry.Timestamp = *req.Timestamp
	}

	t, err := s.findTenant(ctx, req.TenantID)
	switch {
	case err == nil:
		entry.TenantID = t.ID
		entry.Message = "Status: " + string(t.Status)
		if t.Status == tenant.StatusActive {
			entry.Status = AccessSuccess
		}
	case !errors.Is(err, tenant.ErrNotFound):
		return nil, err
	}

	if err := s.logs.Create(ctx, entry); err != nil {
		return nil, err
	}
	return ok(http.StatusCreated, map[string]any{"logged": true, "log_id": entry.ID}), nil
}

// AccessLogs returns the latest access attempts, optionally for one tenant.
func (s *Service) AccessLogs(ctx context.Context, tenantID string, limit int) ([]*AccessLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).Order("logged_at DESC").Limit(limit)
	if tenantID != "" {
		q = q.Where("tenant_id = ?", tenantID)
	}
	var out []*AccessLog
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
