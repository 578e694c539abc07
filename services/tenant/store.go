package tenant

import (
	"context"
	"errors"

	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/repository"
	"farmavida-master/pkg/sequence"
	"farmavida-master/services/profile"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("tenant not found")
	ErrSlugTaken = errors.New("tenant slug already taken")
)

// Store persists tenant rows. The unique index on slug is the authority for
// slug ownership; ExistsBySlug is only a pre-check.
type Store struct {
	db      *gorm.DB
	repo    repository.Repository[Tenant]
	profile repository.Repository[profile.Profile]
	node    *snowflake.Node
	seq     sequence.Generator
}

type StoreParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
	Seq  sequence.Generator `optional:"true"`
}

func NewStore(p StoreParams) *Store {
	return &Store{
		db:      p.DB,
		repo:    repository.ProvideStore[Tenant](p.DB),
		profile: repository.ProvideStore[profile.Profile](p.DB),
		node:    p.Node,
		seq:     p.Seq,
	}
}

// Insert assigns id and display code, then creates the row. A slug collision
// is reported as ErrSlugTaken.
func (s *Store) Insert(ctx context.Context, t *Tenant) error {
	if t.ID == "" {
		t.ID = s.node.Generate().String()
	}

	if t.Code == "" && s.seq != nil {
		code, err := s.seq.NextTenantCode(ctx)
		if err != nil {
			logger.FromContext(ctx).Warn("tenant code unavailable, continuing without it", zap.Error(err))
		} else {
			t.Code = code
		}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

// Update applies patch (a map of column to value, or a partial Tenant).
func (s *Store) Update(ctx context.Context, id string, patch any) error {
	if err := s.repo.Update(ctx, id, patch); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes the tenant row only. Use Service.Delete for the cascade.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Tenant, error) {
	t, err := s.repo.FindOne(ctx, &Tenant{ID: id})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	t, err := s.repo.FindOne(ctx, &Tenant{Slug: slug})
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

func (s *Store) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	n, err := s.repo.Count(ctx, &Tenant{Slug: slug})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ExistsByAdminEmail(ctx context.Context, email string) (bool, error) {
	n, err := s.profile.Count(ctx, &profile.Profile{Email: profile.NormalizeEmail(email)})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
