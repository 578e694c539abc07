package provisioning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmavida-master/pkg/config"
	"farmavida-master/pkg/errutil"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/metrics"
	"farmavida-master/pkg/task"
	"farmavida-master/pkg/taskname"
	"farmavida-master/pkg/validation"
	"farmavida-master/services/identity"
	"farmavida-master/services/profile"
	"farmavida-master/services/tenant"

	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("farmavida-master/services/provisioning")

var (
	ErrDuplicateAdmin       = errors.New("admin email already has a profile")
	ErrTenantPersistence    = errors.New("tenant row could not be stored")
	ErrIdentityProvisioning = errors.New("admin identity could not be created")
)

// TenantStore is the tenant persistence the provisioner writes through.
type TenantStore interface {
	Insert(ctx context.Context, t *tenant.Tenant) error
	Update(ctx context.Context, id string, patch any) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*tenant.Tenant, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	ExistsByAdminEmail(ctx context.Context, email string) (bool, error)
}

type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password string, meta identity.Metadata) (*identity.User, error)
	Delete(ctx context.Context, id string) error
}

type ProfileStore interface {
	Insert(ctx context.Context, p *profile.Profile) error
	FindByEmail(ctx context.Context, email string) (*profile.Profile, error)
	UpdateName(ctx context.Context, id, fullName string) error
}

// Request is the payload of a new tenant signup.
type Request struct {
	FantasyName     string `json:"fantasyName" validate:"required,min=3"`
	CorporateName   string `json:"corporateName" validate:"required,min=3"`
	TaxID           string `json:"cnpj" validate:"required,min=14"`
	Phone           string `json:"phone" validate:"required,min=10"`
	Email           string `json:"email" validate:"required,email"`
	ResponsibleName string `json:"responsibleName" validate:"required,min=3"`
	PlanCode        string `json:"planCode" validate:"required"`
	AdminName       string `json:"adminName" validate:"required,min=3"`
	AdminEmail      string `json:"adminEmail" validate:"required,email"`
	AdminBaseURL    string `json:"adminBaseUrl" validate:"omitempty,url"`
	StoreBaseURL    string `json:"storeBaseUrl" validate:"omitempty,url"`
}

func (r Request) normalized() Request {
	trim := strings.TrimSpace
	r.FantasyName = trim(r.FantasyName)
	r.CorporateName = trim(r.CorporateName)
	r.TaxID = trim(r.TaxID)
	r.Phone = trim(r.Phone)
	r.Email = trim(r.Email)
	r.ResponsibleName = trim(r.ResponsibleName)
	r.PlanCode = strings.ToUpper(trim(r.PlanCode))
	r.AdminName = trim(r.AdminName)
	r.AdminEmail = profile.NormalizeEmail(r.AdminEmail)
	r.AdminBaseURL = trim(r.AdminBaseURL)
	r.StoreBaseURL = trim(r.StoreBaseURL)
	return r
}

// Result is returned on success. TemporaryPassword is set only when an admin
// identity was created.
type Result struct {
	Tenant            tenant.View `json:"tenant"`
	TemporaryPassword string      `json:"temporaryPassword,omitempty"`
	State             State       `json:"state"`
	Warnings          []string    `json:"-"`
}

type Deps struct {
	Tenants    TenantStore
	Identities IdentityProvider
	Profiles   ProfileStore
	Plans      tenant.PlanCatalog
	Enqueuer   task.Enqueuer
}

type Options struct {
	SlugAttempts int
	PasswordHash string
	AdminBaseURL string
	StoreBaseURL string
}

// Provisioner creates a tenant together with its first admin.
type Provisioner struct {
	tenants     TenantStore
	identities  IdentityProvider
	profiles    ProfileStore
	plans       tenant.PlanCatalog
	enqueuer    task.Enqueuer
	resolver    *Resolver
	credentials CredentialGenerator
	opts        Options
	now         func() time.Time
}

func NewProvisioner(d Deps, opts Options) *Provisioner {
	return &Provisioner{
		tenants:     d.Tenants,
		identities:  d.Identities,
		profiles:    d.Profiles,
		plans:       d.Plans,
		enqueuer:    d.Enqueuer,
		resolver:    NewResolver(opts.SlugAttempts),
		credentials: CredentialGenerator{Hash: NewPasswordHasher(opts.PasswordHash)},
		opts:        opts,
		now:         time.Now,
	}
}

type Params struct {
	fx.In
	Config     *config.Config
	Tenants    *tenant.Store
	Identities *identity.Service
	Profiles   *profile.Store
	Plans      tenant.PlanCatalog `optional:"true"`
	Enqueuer   task.Enqueuer      `optional:"true"`
}

func New(p Params) *Provisioner {
	return NewProvisioner(Deps{
		Tenants:    p.Tenants,
		Identities: p.Identities,
		Profiles:   p.Profiles,
		Plans:      p.Plans,
		Enqueuer:   p.Enqueuer,
	}, Options{
		SlugAttempts: p.Config.Provisioning.SlugAttempts,
		PasswordHash: p.Config.Provisioning.PasswordHash,
		AdminBaseURL: p.Config.TenantURLs.AdminBaseURL,
		StoreBaseURL: p.Config.TenantURLs.StoreBaseURL,
	})
}

// Provision runs the signup saga:
//
//	validate -> admin pre-check -> slug -> tenant row (pending_setup)
//	-> identity -> profile -> status active
//
// Validation and conflict failures happen before any write. An identity
// failure deletes the tenant row. Profile and activation failures only
// degrade the result to partially_provisioned.
func (p *Provisioner) Provision(ctx context.Context, in Request) (res *Result, err error) {
	ctx, span := tracer.Start(ctx, "provisioning.Provision")
	defer span.End()

	outcome := "failed"
	defer func() {
		if res != nil {
			outcome = string(res.State)
		}
		metrics.ProvisioningCounter.WithLabelValues(outcome).Inc()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	zapLog := logger.FromContext(ctx)
	req := in.normalized()

	if err := p.validate(ctx, req); err != nil {
		outcome = "rejected"
		return nil, err
	}

	taken, err := p.tenants.ExistsByAdminEmail(ctx, req.AdminEmail)
	if err != nil {
		return nil, errutil.Unavailable("could not check admin email", err)
	}
	if taken {
		outcome = "rejected"
		return nil, errutil.Conflict("admin email is already registered", ErrDuplicateAdmin,
			errutil.WithReason("duplicate_admin_email"),
			errutil.WithDetails(errutil.Detail{Field: "adminEmail", Message: "already registered"}),
		)
	}

	candidate := NormalizeSlug(req.FantasyName)

	var (
		row        *tenant.Tenant
		credential Credential
		user       *identity.User
	)

	s := newSaga(
		step{
			name:    "insert_tenant",
			reaches: StateTenantCreated,
			policy:  PolicyAbort,
			run: func(ctx context.Context) error {
				t, err := p.insertTenant(ctx, req, candidate)
				if err != nil {
					return err
				}
				row = t
				return nil
			},
			compensate: func(ctx context.Context) error {
				return p.tenants.Delete(ctx, row.ID)
			},
		},
		step{
			name:    "create_identity",
			reaches: StateIdentityCreated,
			policy:  PolicyCompensate,
			run: func(ctx context.Context) error {
				c, err := p.credentials.Generate()
				if err != nil {
					return err
				}
				credential = c
				user, err = p.identities.CreateUser(ctx, req.AdminEmail, c.Plaintext, identity.Metadata{
					Role:     string(profile.RoleAdmin),
					FullName: req.AdminName,
					TenantID: row.ID,
				})
				return err
			},
		},
		step{
			name:    "insert_profile",
			reaches: StateProfileCreated,
			policy:  PolicyContinue,
			run: func(ctx context.Context) error {
				issued := p.now()
				return p.profiles.Insert(ctx, &profile.Profile{
					ID:                   user.ID,
					Email:                req.AdminEmail,
					FullName:             req.AdminName,
					Role:                 profile.RoleCEO,
					TenantID:             row.ID,
					PasswordHash:         credential.Hash,
					TempPasswordIssuedAt: &issued,
					Status:               profile.StatusActive,
				})
			},
		},
		step{
			name:    "activate_tenant",
			reaches: StateActive,
			policy:  PolicyContinue,
			run: func(ctx context.Context) error {
				patch := map[string]any{"status": tenant.StatusActive, "onboarding_status": "completed"}
				if err := p.tenants.Update(ctx, row.ID, patch); err != nil {
					return err
				}
				row.Status = tenant.StatusActive
				return nil
			},
		},
	)

	if err := s.execute(ctx); err != nil {
		if s.state == StateRolledBack {
			outcome = string(StateRolledBack)
		}
		return p.fail(ctx, s, err)
	}

	if fresh, err := p.tenants.Get(ctx, row.ID); err == nil {
		row = fresh
	} else {
		zapLog.Warn("could not reload provisioned tenant", zap.String("tenant_id", row.ID), zap.Error(err))
	}

	span.SetAttributes(
		attribute.String("tenant.id", row.ID),
		attribute.String("tenant.slug", row.Slug),
		attribute.String("provisioning.state", string(s.state)),
	)
	zapLog.Info("tenant provisioned",
		zap.String("tenant_id", row.ID),
		zap.String("slug", row.Slug),
		zap.String("plan", row.PlanCode),
		zap.String("state", string(s.state)),
		zap.Strings("warnings", s.warnings),
	)

	p.notify(ctx, row, req.AdminEmail)

	return &Result{
		Tenant:            row.View(),
		TemporaryPassword: credential.Plaintext,
		State:             s.state,
		Warnings:          s.warnings,
	}, nil
}

func (p *Provisioner) validate(ctx context.Context, req Request) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if NormalizeSlug(req.FantasyName) == "" {
		return errutil.ValidationFailed("request validation failed", nil,
			errutil.WithReason("validation_failed"),
			errutil.WithDetails(errutil.Detail{Field: "fantasyName", Message: "must contain letters or digits"}),
		)
	}
	if p.plans == nil {
		return nil
	}

	ok, err := p.plans.PlanExists(ctx, req.PlanCode)
	if err != nil {
		return errutil.Unavailable("could not check plan", err)
	}
	if !ok {
		return errutil.ValidationFailed("request validation failed", tenant.ErrUnknownPlan,
			errutil.WithReason("validation_failed"),
			errutil.WithDetails(errutil.Detail{Field: "planCode", Message: "unknown plan"}),
		)
	}
	return nil
}

// insertTenant resolves a slug and inserts the row. Losing a slug race on
// the unique index re-resolves, within the same attempt budget.
func (p *Provisioner) insertTenant(ctx context.Context, req Request, candidate string) (*tenant.Tenant, error) {
	adminBase := req.AdminBaseURL
	if adminBase == "" {
		adminBase = p.opts.AdminBaseURL
	}
	storeBase := req.StoreBaseURL
	if storeBase == "" {
		storeBase = p.opts.StoreBaseURL
	}

	for attempt := 0; attempt < p.resolver.Attempts; attempt++ {
		slug, err := p.resolver.Resolve(ctx, candidate, p.tenants.ExistsBySlug)
		if err != nil {
			if errors.Is(err, ErrSlugExhausted) {
				return nil, errutil.Conflict("could not find a free slug for this name", err,
					errutil.WithReason("slug_exhausted"))
			}
			return nil, errutil.Unavailable("could not check slug", err)
		}

		t := &tenant.Tenant{
			DisplayName:      req.FantasyName,
			LegalName:        req.CorporateName,
			TaxID:            req.TaxID,
			Phone:            req.Phone,
			Email:            req.Email,
			ResponsibleName:  req.ResponsibleName,
			Slug:             slug,
			PlanCode:         req.PlanCode,
			Status:           tenant.StatusPendingSetup,
			AdminBaseURL:     adminBase,
			StoreBaseURL:     storeBase,
			OnboardingStatus: "pending",
		}

		err = p.tenants.Insert(ctx, t)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, tenant.ErrSlugTaken) {
			return nil, errutil.Internal("could not create tenant", fmt.Errorf("%w: %w", ErrTenantPersistence, err),
				errutil.WithReason("tenant_persistence_failed"))
		}
		logger.FromContext(ctx).Info("slug taken by concurrent signup, retrying", zap.String("slug", slug))
	}

	return nil, errutil.Conflict("could not find a free slug for this name", ErrSlugExhausted,
		errutil.WithReason("slug_exhausted"))
}

func (p *Provisioner) fail(ctx context.Context, s *saga, err error) (*Result, error) {
	if s.state != StateRolledBack {
		return nil, err
	}

	if errors.Is(err, identity.ErrEmailTaken) {
		return nil, errutil.Conflict("admin email is already registered", fmt.Errorf("%w: %w", ErrDuplicateAdmin, err),
			errutil.WithReason("duplicate_admin_email"))
	}
	logger.FromContext(ctx).Error("tenant rolled back after identity failure", zap.Strings("warnings", s.warnings), zap.Error(err))
	return nil, errutil.BadGateway("could not create the admin user", fmt.Errorf("%w: %w", ErrIdentityProvisioning, err),
		errutil.WithReason("identity_provisioning_failed"))
}

type ProvisionedPayload struct {
	TenantID   string `json:"tenant_id"`
	Slug       string `json:"slug"`
	AdminEmail string `json:"admin_email"`
}

func NewProvisionedTask(payload ProvisionedPayload) (*asynq.Task, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskname.TenantProvisioned, b, asynq.MaxRetry(3), asynq.Timeout(30*time.Second)), nil
}

func (p *Provisioner) notify(ctx context.Context, t *tenant.Tenant, adminEmail string) {
	if p.enqueuer == nil {
		return
	}
	zapLog := logger.FromContext(ctx)

	tk, err := NewProvisionedTask(ProvisionedPayload{TenantID: t.ID, Slug: t.Slug, AdminEmail: adminEmail})
	if err != nil {
		zapLog.Warn("failed to build provisioned task", zap.Error(err))
		return
	}
	if _, err := p.enqueuer.Enqueue(ctx, tk); err != nil {
		zapLog.Warn("failed to enqueue provisioned task", zap.String("tenant_id", t.ID), zap.Error(err))
	}
}
