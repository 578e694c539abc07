package profile

import (
	"context"

	"farmavida-master/pkg/db/option"
	"farmavida-master/pkg/repository"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Store struct {
	repo repository.Repository[Profile]
}

type Params struct {
	fx.In
	DB *gorm.DB
}

func NewStore(p Params) *Store {
	return &Store{repo: repository.ProvideStore[Profile](p.DB)}
}

func (s *Store) Insert(ctx context.Context, p *Profile) error {
	p.Email = NormalizeEmail(p.Email)
	return s.repo.Create(ctx, p)
}

func (s *Store) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.repo.Count(ctx, &Profile{Email: NormalizeEmail(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByEmail returns nil, nil when no profile uses the address.
func (s *Store) FindByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.repo.FindOne(ctx, &Profile{Email: NormalizeEmail(email)})
}

func (s *Store) UpdateName(ctx context.Context, id, fullName string) error {
	return s.repo.Update(ctx, id, map[string]any{"full_name": fullName})
}

func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]*Profile, error) {
	return s.repo.Find(ctx, &Profile{TenantID: tenantID}, option.WithSortBy(option.QuerySortBy{OrderBy: "asc"}))
}
