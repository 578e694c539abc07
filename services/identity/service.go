package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/repository"
	"farmavida-master/pkg/security"

	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("identity: email already registered")

// Service is the login system of record. Identities are created confirmed;
// there is no signup flow.
type Service struct {
	repo repository.Repository[Identity]
	hash func(string) (string, error)
}

type Params struct {
	fx.In
	DB *gorm.DB
}

func NewService(p Params) *Service {
	return &Service{
		repo: repository.ProvideStore[Identity](p.DB),
		hash: security.HashArgon2,
	}
}

func (s *Service) CreateUser(ctx context.Context, email, password string, meta Metadata) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errors.New("identity: email and password are required")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	row := &Identity{
		ID:             uuid.NewString(),
		Email:          email,
		PasswordHash:   hash,
		EmailConfirmed: true,
		TenantID:       meta.TenantID,
		Metadata:       datatypes.NewJSONType(meta),
	}

	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("identity created",
		zap.String("identity_id", row.ID),
		zap.String("tenant_id", meta.TenantID),
		zap.String("role", meta.Role),
	)

	return &User{ID: row.ID, Email: row.Email}, nil
}

// Delete removes an identity. Used to undo an admin whose profile could not
// be stored.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
