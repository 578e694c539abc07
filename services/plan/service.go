package plan

import (
	"context"
	"errors"
	"strings"
	"time"

	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/repository"
	"farmavida-master/pkg/validation"
	"farmavida-master/services/tenant"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("plan not found")
	ErrCodeTaken = errors.New("plan code already exists")
	ErrInUse     = errors.New("plan is assigned to tenants")
)

const defaultCacheTTL = 5 * time.Minute

type Service struct {
	db      *gorm.DB
	repo    repository.Repository[Plan]
	tenants repository.Repository[tenant.Tenant]
	node    *snowflake.Node
	cache   *planCache
}

type Params struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p Params) *Service {
	return &Service{
		db:      p.DB,
		repo:    repository.ProvideStore[Plan](p.DB),
		tenants: repository.ProvideStore[tenant.Tenant](p.DB),
		node:    p.Node,
		cache:   newPlanCache(defaultCacheTTL),
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// List returns plans ordered by monthly price.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Plan, error) {
	var plans []*Plan
	q := s.db.WithContext(ctx).Order("price_month ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Plan, error) {
	p, err := s.repo.FindOne(ctx, &Plan{ID: id})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Plan, error) {
	code = normalizeCode(code)
	return s.cache.Load(code, func() (*Plan, error) {
		p, err := s.repo.FindOne(ctx, &Plan{Code: code})
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, ErrNotFound
		}
		return p, nil
	})
}

// PlanExists reports whether code names an active plan.
func (s *Service) PlanExists(ctx context.Context, code string) (bool, error) {
	p, err := s.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return p.IsActive, nil
}

type CreateRequest struct {
	Code       string   `json:"code" validate:"required,min=2,max=40,alphanum"`
	Name       string   `json:"name" validate:"required,min=2,max=120"`
	PriceMonth float64  `json:"price_month" validate:"gte=0"`
	PriceYear  float64  `json:"price_year" validate:"gte=0"`
	Limits     Limits   `json:"limits"`
	Features   Features `json:"features"`
	IsActive   *bool    `json:"is_active"`
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*Plan, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	features := req.Features
	if features.Capabilities == nil {
		features, _ = NormalizeFeatures(nil)
	}

	p := &Plan{
		ID:         s.node.Generate().String(),
		Code:       normalizeCode(req.Code),
		Name:       strings.TrimSpace(req.Name),
		PriceMonth: req.PriceMonth,
		PriceYear:  req.PriceYear,
		Limits:     datatypes.NewJSONType(req.Limits),
		Features:   datatypes.NewJSONType(features),
		IsActive:   active,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCodeTaken
		}
		return nil, err
	}

	s.cache.Invalidate(p.Code)
	return p, nil
}

// UpdateRequest edits a plan; nil fields are kept. The code is immutable
// because tenants reference it.
type UpdateRequest struct {
	Name       *string   `json:"name" validate:"omitempty,min=2,max=120"`
	PriceMonth *float64  `json:"price_month" validate:"omitempty,gte=0"`
	PriceYear  *float64  `json:"price_year" validate:"omitempty,gte=0"`
	Limits     *Limits   `json:"limits"`
	Features   *Features `json:"features"`
	IsActive   *bool     `json:"is_active"`
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*Plan, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	if req.Name != nil {
		patch["name"] = strings.TrimSpace(*req.Name)
	}
	if req.PriceMonth != nil {
		patch["price_month"] = *req.PriceMonth
	}
	if req.PriceYear != nil {
		patch["price_year"] = *req.PriceYear
	}
	if req.Limits != nil {
		patch["limits"] = datatypes.NewJSONType(*req.Limits)
	}
	if req.Features != nil {
		patch["features"] = datatypes.NewJSONType(*req.Features)
	}
	if req.IsActive != nil {
		patch["is_active"] = *req.IsActive
	}

	if len(patch) > 0 {
		if err := s.repo.Update(ctx, id, patch); err != nil {
			return nil, err
		}
		s.cache.Invalidate(current.Code)
	}
	return s.Get(ctx, id)
}

// Delete removes a plan no tenant is subscribed to.
func (s *Service) Delete(ctx context.Context, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.tenants.Count(ctx, &tenant.Tenant{PlanCode: current.Code})
	if err != nil {
		return err
	}
	if inUse > 0 {
		logger.FromContext(ctx).Warn("refusing to delete plan in use",
			zap.String("plan", current.Code),
			zap.Int64("tenants", inUse),
		)
		return ErrInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.cache.Invalidate(current.Code)
	return nil
}

// Seed inserts the given plans when their code is missing. Existing plans are
// left untouched.
func (s *Service) Seed(ctx context.Context, plans []*Plan) (int, error) {
	created := 0
	for _, p := range plans {
		p.Code = normalizeCode(p.Code)
		existing, err := s.repo.FindOne(ctx, &Plan{Code: p.Code})
		if err != nil {
			return created, err
		}
		if existing != nil {
			continue
		}
		if p.ID == "" {
			p.ID = s.node.Generate().String()
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
