package provisioning

import (
	"context"
	"errors"
	"strings"

	"farmavida-master/pkg/errutil"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/validation"
	"farmavida-master/services/identity"
	"farmavida-master/services/profile"

	"go.uber.org/zap"
)

type AdminRequest struct {
	Name  string `json:"adminName" validate:"required,min=3"`
	Email string `json:"adminEmail" validate:"required,email"`
}

type AdminResult struct {
	ProfileID         string `json:"profileId"`
	Email             string `json:"email"`
	Created           bool   `json:"created"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

// EnsureAdmin is the edit path for a tenant's admin. An existing profile for
// the email only gets its name updated and no password is issued. Otherwise
// a new identity and profile are created and the temporary password returned.
func (p *Provisioner) EnsureAdmin(ctx context.Context, tenantID string, req AdminRequest) (*AdminResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = profile.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	if _, err := p.tenants.Get(ctx, tenantID); err != nil {
		return nil, err
	}

	zapLog := logger.FromContext(ctx).With(zap.String("tenant_id", tenantID))

	existing, err := p.profiles.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, errutil.Unavailable("could not look up admin", err)
	}
	if existing != nil {
		if existing.TenantID != tenantID {
			return nil, errutil.Conflict("admin email is already registered", ErrDuplicateAdmin,
				errutil.WithReason("duplicate_admin_email"))
		}
		if existing.FullName != req.Name {
			if err := p.profiles.UpdateName(ctx, existing.ID, req.Name); err != nil {
				return nil, err
			}
		}
		return &AdminResult{ProfileID: existing.ID, Email: existing.Email}, nil
	}

	credential, err := p.credentials.Generate()
	if err != nil {
		return nil, err
	}

	user, err := p.identities.CreateUser(ctx, req.Email, credential.Plaintext, identity.Metadata{
		Role:     string(profile.RoleAdmin),
		FullName: req.Name,
		TenantID: tenantID,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, errutil.Conflict("admin email is already registered", err,
				errutil.WithReason("duplicate_admin_email"))
		}
		return nil, errutil.BadGateway("could not create the admin user", err,
			errutil.WithReason("identity_provisioning_failed"))
	}

	issued := p.now()
	if err := p.profiles.Insert(ctx, &profile.Profile{
		ID:                   user.ID,
		Email:                req.Email,
		FullName:             req.Name,
		Role:                 profile.RoleCEO,
		TenantID:             tenantID,
		PasswordHash:         credential.Hash,
		TempPasswordIssuedAt: &issued,
		Status:               profile.StatusActive,
	}); err != nil {
		zapLog.Error("admin profile insert failed, removing identity", zap.String("identity_id", user.ID), zap.Error(err))
		if derr := p.identities.Delete(ctx, user.ID); derr != nil {
			zapLog.Error("could not remove orphan identity", zap.String("identity_id", user.ID), zap.Error(derr))
		}
		return nil, errutil.Internal("could not store the admin profile", err,
			errutil.WithReason("profile_persistence_failed"))
	}

	zapLog.Info("tenant admin created", zap.String("identity_id", user.ID))
	return &AdminResult{
		ProfileID:         user.ID,
		Email:             user.Email,
		Created:           true,
		TemporaryPassword: credential.Plaintext,
	}, nil
}
