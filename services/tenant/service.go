package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmavida-master/pkg/db/option"
	"farmavida-master/pkg/db/pagination"
	"farmavida-master/pkg/dns"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/repository"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("farmavida-master/services/tenant")

var (
	ErrInvalidStatus   = errors.New("invalid tenant status")
	ErrUnknownPlan     = errors.New("unknown plan code")
	ErrNoCustomDomain  = errors.New("tenant has no custom domain to verify")
	ErrDomainUnchecked = errors.New("domain TXT record not found")
)

// PlanCatalog answers whether a plan code can be assigned to a tenant.
type PlanCatalog interface {
	PlanExists(ctx context.Context, code string) (bool, error)
}

type Service struct {
	db       *gorm.DB
	store    *Store
	repo     repository.Repository[Tenant]
	plans    PlanCatalog
	verifier dns.TXTVerifier
	now      func() time.Time
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Store    *Store
	Plans    PlanCatalog     `optional:"true"`
	Verifier dns.TXTVerifier `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	verifier := p.Verifier
	if verifier == nil {
		verifier = dns.NewVerifier()
	}
	return &Service{
		db:       p.DB,
		store:    p.Store,
		repo:     repository.ProvideStore[Tenant](p.DB),
		plans:    p.Plans,
		verifier: verifier,
		now:      time.Now,
	}
}

type ListFilter struct {
	Status  Status `form:"status"`
	Query   string `form:"q"`
	SortBy  string `form:"sort_by"`
	OrderBy string `form:"order_by"`
	pagination.Pagination
}

type ListResult struct {
	Data     []View              `json:"data"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var sortable = map[string]bool{
	"created_at":      true,
	"display_name":    true,
	"monthly_revenue": true,
	"risk_score":      true,
	"status":          true,
}

func (s *Service) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	zapLog := logger.FromContext(ctx)

	query := &Tenant{Status: f.Status}
	filters := []option.QueryOption{
		option.WithSearch(f.Query, "display_name", "slug", "legal_name", "tax_id"),
	}

	total, err := s.repo.Count(ctx, query, filters...)
	if err != nil {
		zapLog.Error("failed to count tenants", zap.Error(err))
		return nil, err
	}

	orderBy := f.OrderBy
	if orderBy == "" {
		orderBy = "desc"
	}
	opts := append(filters,
		option.WithSortBy(option.QuerySortBy{SortBy: f.SortBy, OrderBy: orderBy, Allow: sortable}),
		option.ApplyPagination(f.Pagination),
	)

	tenants, err := s.repo.Find(ctx, query, opts...)
	if err != nil {
		zapLog.Error("failed to list tenants", zap.Error(err))
		return nil, err
	}

	views := make([]View, 0, len(tenants))
	for _, t := range tenants {
		views = append(views, t.View())
	}

	return &ListResult{Data: views, PageInfo: pagination.BuildPageInfo(f.Pagination, total)}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Tenant, error) {
	return s.store.Get(ctx, id)
}

// UpdateRequest carries the editable registration fields; nil leaves a field as is.
type UpdateRequest struct {
	FantasyName     *string `json:"fantasyName" validate:"omitempty,min=3"`
	CorporateName   *string `json:"corporateName" validate:"omitempty,min=3"`
	TaxID           *string `json:"cnpj" validate:"omitempty,min=14"`
	Phone           *string `json:"phone" validate:"omitempty,min=10"`
	Email           *string `json:"email" validate:"omitempty,email"`
	ResponsibleName *string `json:"responsibleName" validate:"omitempty,min=3"`
	AdminBaseURL    *string `json:"adminBaseUrl" validate:"omitempty,url"`
	StoreBaseURL    *string `json:"storeBaseUrl" validate:"omitempty,url"`
}

func (r UpdateRequest) patch() map[string]any {
	patch := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			patch[col] = strings.TrimSpace(*v)
		}
	}
	set("display_name", r.FantasyName)
	set("legal_name", r.CorporateName)
	set("tax_id", r.TaxID)
	set("phone", r.Phone)
	set("email", r.Email)
	set("responsible_name", r.ResponsibleName)
	set("admin_base_url", r.AdminBaseURL)
	set("store_base_url", r.StoreBaseURL)
	return patch
}

// Update edits registration data. The slug is never regenerated so tenant
// URLs stay stable.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Tenant, error) {
	patch := req.patch()
	if len(patch) > 0 {
		if err := s.store.Update(ctx, id, patch); err != nil {
			return nil, err
		}
	}
	return s.store.Get(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, reason string) (*Tenant, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	patch := map[string]any{"status": status, "blocked_reason": ""}
	if status == StatusBlocked || status == StatusSuspended {
		patch["blocked_reason"] = reason
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("tenant status changed",
		zap.String("tenant_id", id),
		zap.String("status", string(status)),
		zap.String("reason", reason),
	)
	return s.store.Get(ctx, id)
}

func (s *Service) ChangePlan(ctx context.Context, id, planCode string) (*Tenant, error) {
	planCode = strings.ToUpper(strings.TrimSpace(planCode))
	if s.plans != nil {
		ok, err := s.plans.PlanExists(ctx, planCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, planCode)
		}
	}

	if err := s.store.Update(ctx, id, map[string]any{"plan_code": planCode}); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// Touch records tenant activity.
func (s *Service) Touch(ctx context.Context, id string) error {
	return s.store.Update(ctx, id, map[string]any{"last_activity_at": s.now()})
}

type Summary struct {
	Total          int64            `json:"total"`
	ByStatus       map[Status]int64 `json:"by_status"`
	MonthlyRevenue float64          `json:"monthly_revenue"`
	ActiveUsers    int64            `json:"active_users"`
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	type row struct {
		Status  Status
		Count   int64
		Revenue float64
		Users   int64
	}
	var rows []row
	err := s.db.WithContext(ctx).Model(&Tenant{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(monthly_revenue), 0) AS revenue, COALESCE(SUM(active_users), 0) AS users").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := &Summary{ByStatus: map[Status]int64{}}
	for _, r := range rows {
		out.ByStatus[r.Status] = r.Count
		out.Total += r.Count
		out.MonthlyRevenue += r.Revenue
		out.ActiveUsers += r.Users
	}
	return out, nil
}
