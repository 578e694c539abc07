package provisioning

import (
	"context"
	"errors"
	"testing"

	"farmavida-master/pkg/errutil"
	"farmavida-master/pkg/security"
	"farmavida-master/pkg/taskname"
	"farmavida-master/services/identity"
	"farmavida-master/services/profile"
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

type fakeIdentities struct {
	err     error
	calls   int
	deleted []string
	fn      func(email string, meta identity.Metadata) (*identity.User, error)
}

func (f *fakeIdentities) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIdentities) CreateUser(_ context.Context, email, _ string, meta identity.Metadata) (*identity.User, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(email, meta)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &identity.User{ID: "identity-1", Email: email}, nil
}

type failingProfiles struct {
	*profile.Store
	err error
}

func (f failingProfiles) Insert(context.Context, *profile.Profile) error { return f.err }

type flakyTenants struct {
	*tenant.Store
	insertErrs []error
	updateErr  error
	inserts    int
}

func (f *flakyTenants) Insert(ctx context.Context, t *tenant.Tenant) error {
	f.inserts++
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	return f.Store.Insert(ctx, t)
}

func (f *flakyTenants) Update(ctx context.Context, id string, patch any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Store.Update(ctx, id, patch)
}

type fakePlans map[string]bool

func (f fakePlans) PlanExists(_ context.Context, code string) (bool, error) { return f[code], nil }

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, t)
	return &asynq.TaskInfo{}, f.err
}

type fixture struct {
	db         *gorm.DB
	tenants    *tenant.Store
	identities *identity.Service
	profiles   *profile.Store
	enqueuer   *fakeEnqueuer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t, &tenant.Tenant{}, &profile.Profile{}, &identity.Identity{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return &fixture{
		db:         db,
		tenants:    tenant.NewStore(tenant.StoreParams{DB: db, Node: node}),
		identities: identity.NewService(identity.Params{DB: db}),
		profiles:   profile.NewStore(profile.Params{DB: db}),
		enqueuer:   &fakeEnqueuer{},
	}
}

func (f *fixture) provisioner(overrides ...func(*Deps)) *Provisioner {
	d := Deps{
		Tenants:    f.tenants,
		Identities: f.identities,
		Profiles:   f.profiles,
		Plans:      fakePlans{"START": true, "PREMIUM": true},
		Enqueuer:   f.enqueuer,
	}
	for _, o := range overrides {
		o(&d)
	}
	return NewProvisioner(d, Options{AdminBaseURL: "https://admin.farmavida.app", StoreBaseURL: "https://loja.farmavida.app"})
}

func (f *fixture) tenantCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&tenant.Tenant{}).Count(&n).Error)
	return n
}

func validRequest(name, adminEmail string) Request {
	return Request{
		FantasyName:     name,
		CorporateName:   name + " Ltda",
		TaxID:           "12.345.678/0001-90",
		Phone:           "11987654321",
		Email:           "contato@farmacia.com.br",
		ResponsibleName: "Maria Souza",
		PlanCode:        "start",
		AdminName:       "João Admin",
		AdminEmail:      adminEmail,
	}
}

func requireCode(t *testing.T, err error, code errutil.CoreStatus, reason string) {
	t.Helper()
	var be errutil.BaseError
	require.True(t, errors.As(err, &be), "expected BaseError, got %v", err)
	require.Equal(t, code, be.Code)
	require.Equal(t, reason, be.Reason)
}

func TestProvisionCreatesActiveTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.provisioner().Provision(ctx, validRequest("Farmácia São João", "Admin@SaoJoao.com "))
	require.NoError(t, err)

	require.Equal(t, StateActive, res.State)
	require.Equal(t, "farmacia-sao-joao", res.Tenant.Slug)
	require.Equal(t, tenant.StatusActive, res.Tenant.Status)
	require.Equal(t, "START", res.Tenant.PlanCode)
	require.Zero(t, res.Tenant.MonthlyRevenue)
	require.Zero(t, res.Tenant.ActiveUsers)
	require.Zero(t, res.Tenant.RiskScore)
	require.Equal(t, "https://admin.farmavida.app?tenant=farmacia-sao-joao", res.Tenant.AdminURL)
	require.Regexp(t, `^[A-Z][0-9]{2}[a-z]{5}$`, res.TemporaryPassword)
	require.Empty(t, res.Warnings)

	p, err := f.profiles.FindByEmail(ctx, "admin@saojoao.com")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, res.Tenant.ID, p.TenantID)
	require.Equal(t, profile.RoleCEO, p.Role)
	require.NotNil(t, p.TempPasswordIssuedAt)

	var ident identity.Identity
	require.NoError(t, f.db.First(&ident, "email = ?", "admin@saojoao.com").Error)
	require.Equal(t, p.ID, ident.ID)
	require.Equal(t, string(profile.RoleAdmin), ident.Metadata.Data().Role)
	ok, err := security.VerifyArgon2(res.TemporaryPassword, ident.PasswordHash)
	require.NoError(t, err)
	require.True(t, ok)

	stored, err := f.tenants.Get(ctx, res.Tenant.ID)
	require.NoError(t, err)
	require.Equal(t, "completed", stored.OnboardingStatus)

	require.Len(t, f.enqueuer.tasks, 1)
	require.Equal(t, taskname.TenantProvisioned, f.enqueuer.tasks[0].Type())
}

func TestProvisionSameNameGetsSuffix(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.provisioner()

	first, err := p.Provision(ctx, validRequest("Drogaria ABC", "a@abc.com"))
	require.NoError(t, err)
	require.Equal(t, "drogaria-abc", first.Tenant.Slug)

	second, err := p.Provision(ctx, validRequest("Drogaria ABC", "b@abc.com"))
	require.NoError(t, err)
	require.Regexp(t, `^drogaria-abc-[0-9]{1,4}$`, second.Tenant.Slug)
}

func TestProvisionRejectsDuplicateAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.provisioner()

	_, err := p.Provision(ctx, validRequest("Farmácia Um", "dup@farmacia.com"))
	require.NoError(t, err)

	_, err = p.Provision(ctx, validRequest("Farmácia Dois", "DUP@farmacia.com"))
	require.ErrorIs(t, err, ErrDuplicateAdmin)
	requireCode(t, err, errutil.StatusConflict, "duplicate_admin_email")
	require.EqualValues(t, 1, f.tenantCount(t))
}

func TestProvisionRollsBackOnIdentityFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ids := &fakeIdentities{err: errors.New("auth provider down")}

	_, err := f.provisioner(func(d *Deps) { d.Identities = ids }).Provision(ctx, validRequest("Farmácia Rollback", "x@rb.com"))
	require.ErrorIs(t, err, ErrIdentityProvisioning)
	requireCode(t, err, errutil.StatusBadGateway, "identity_provisioning_failed")
	require.Equal(t, 1, ids.calls)

	_, err = f.tenants.GetBySlug(ctx, "farmacia-rollback")
	require.ErrorIs(t, err, tenant.ErrNotFound)
	require.Zero(t, f.tenantCount(t))
	require.Empty(t, f.enqueuer.tasks)
}

func TestProvisionIdentityEmailTakenIsConflict(t *testing.T) {
	f := newFixture(t)
	ids := &fakeIdentities{err: identity.ErrEmailTaken}

	_, err := f.provisioner(func(d *Deps) { d.Identities = ids }).Provision(context.Background(), validRequest("Farmácia Orfã", "orphan@x.com"))
	require.ErrorIs(t, err, ErrDuplicateAdmin)
	requireCode(t, err, errutil.StatusConflict, "duplicate_admin_email")
	require.Zero(t, f.tenantCount(t))
}

func TestProvisionProfileFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	profiles := failingProfiles{Store: f.profiles, err: errors.New("profiles table locked")}

	res, err := f.provisioner(func(d *Deps) { d.Profiles = profiles }).Provision(context.Background(), validRequest("Farmácia Parcial", "p@parcial.com"))
	require.NoError(t, err)
	require.Equal(t, StatePartiallyProvisioned, res.State)
	require.Equal(t, tenant.StatusActive, res.Tenant.Status)
	require.NotEmpty(t, res.TemporaryPassword)
	require.Len(t, res.Warnings, 1)

	stored, err := f.tenants.GetBySlug(context.Background(), "farmacia-parcial")
	require.NoError(t, err)
	require.Equal(t, tenant.StatusActive, stored.Status)
}

func TestProvisionActivationFailureIsSoft(t *testing.T) {
	f := newFixture(t)
	tenants := &flakyTenants{Store: f.tenants, updateErr: errors.New("update timeout")}

	res, err := f.provisioner(func(d *Deps) { d.Tenants = tenants }).Provision(context.Background(), validRequest("Farmácia Pendente", "p@pendente.com"))
	require.NoError(t, err)
	require.Equal(t, StatePartiallyProvisioned, res.State)
	require.Equal(t, tenant.StatusPendingSetup, res.Tenant.Status)
	require.NotEmpty(t, res.TemporaryPassword)
}

func TestProvisionRetriesLostSlugRace(t *testing.T) {
	f := newFixture(t)
	tenants := &flakyTenants{Store: f.tenants, insertErrs: []error{tenant.ErrSlugTaken}}

	res, err := f.provisioner(func(d *Deps) { d.Tenants = tenants }).Provision(context.Background(), validRequest("Farmácia Corrida", "c@corrida.com"))
	require.NoError(t, err)
	require.Equal(t, 2, tenants.inserts)
	require.Equal(t, "farmacia-corrida", res.Tenant.Slug)
}

func TestProvisionPersistenceFailureHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	ids := &fakeIdentities{}
	tenants := &flakyTenants{Store: f.tenants, insertErrs: []error{errors.New("disk full")}}

	_, err := f.provisioner(func(d *Deps) {
		d.Tenants = tenants
		d.Identities = ids
	}).Provision(context.Background(), validRequest("Farmácia Cheia", "c@cheia.com"))
	require.ErrorIs(t, err, ErrTenantPersistence)
	requireCode(t, err, errutil.StatusInternal, "tenant_persistence_failed")
	require.Zero(t, ids.calls)
	require.Zero(t, f.tenantCount(t))
}

func TestProvisionValidationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	p := f.provisioner()
	bad := Request{FantasyName: "Fa", AdminEmail: "not-an-email", TaxID: "123", Phone: "11"}

	_, err1 := p.Provision(context.Background(), bad)
	_, err2 := p.Provision(context.Background(), bad)

	requireCode(t, err1, errutil.StatusValidationFailed, "validation_failed")
	require.Equal(t, err1.Error(), err2.Error())

	var be1, be2 errutil.BaseError
	require.True(t, errors.As(err1, &be1))
	require.True(t, errors.As(err2, &be2))
	require.Equal(t, be1.Details, be2.Details)
	require.Zero(t, f.tenantCount(t))
}

func TestProvisionRejectsUnknownPlan(t *testing.T) {
	f := newFixture(t)
	req := validRequest("Farmácia Plano", "p@plano.com")
	req.PlanCode = "GOLD"

	_, err := f.provisioner().Provision(context.Background(), req)
	requireCode(t, err, errutil.StatusValidationFailed, "validation_failed")
	require.Zero(t, f.tenantCount(t))
}

func TestProvisionRejectsNameWithoutSlugCharacters(t *testing.T) {
	f := newFixture(t)
	_, err := f.provisioner().Provision(context.Background(), validRequest("!!!???", "p@x.com"))
	requireCode(t, err, errutil.StatusValidationFailed, "validation_failed")
	require.Zero(t, f.tenantCount(t))
}

func TestProvisionValidatesNameBeforeAdminEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.provisioner()

	_, err := p.Provision(ctx, validRequest("Farmácia Um", "dup@x.com"))
	require.NoError(t, err)

	_, err = p.Provision(ctx, validRequest("!!!", "dup@x.com"))
	requireCode(t, err, errutil.StatusValidationFailed, "validation_failed")
	require.NotErrorIs(t, err, ErrDuplicateAdmin)
	require.EqualValues(t, 1, f.tenantCount(t))
}

func TestProvisionSucceedsWhenEnqueueFails(t *testing.T) {
	f := newFixture(t)
	f.enqueuer.err = errors.New("redis down")

	res, err := f.provisioner().Provision(context.Background(), validRequest("Farmácia Fila", "f@fila.com"))
	require.NoError(t, err)
	require.Equal(t, StateActive, res.State)
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.provisioner()

	res, err := p.Provision(ctx, validRequest("Farmácia Edit", "owner@edit.com"))
	require.NoError(t, err)
	tenantID := res.Tenant.ID

	t.Run("existing admin is renamed without password", func(t *testing.T) {
		out, err := p.EnsureAdmin(ctx, tenantID, AdminRequest{Name: "Novo Nome", Email: "owner@edit.com"})
		require.NoError(t, err)
		require.False(t, out.Created)
		require.Empty(t, out.TemporaryPassword)

		prof, err := f.profiles.FindByEmail(ctx, "owner@edit.com")
		require.NoError(t, err)
		require.Equal(t, "Novo Nome", prof.FullName)
	})

	t.Run("new admin gets a password", func(t *testing.T) {
		out, err := p.EnsureAdmin(ctx, tenantID, AdminRequest{Name: "Segundo Admin", Email: "second@edit.com"})
		require.NoError(t, err)
		require.True(t, out.Created)
		require.Regexp(t, `^[A-Z][0-9]{2}[a-z]{5}$`, out.TemporaryPassword)

		admins, err := f.profiles.ListByTenant(ctx, tenantID)
		require.NoError(t, err)
		require.Len(t, admins, 2)
	})

	t.Run("email owned by another tenant", func(t *testing.T) {
		other, err := p.Provision(ctx, validRequest("Farmácia Outra", "other@outra.com"))
		require.NoError(t, err)

		_, err = p.EnsureAdmin(ctx, other.Tenant.ID, AdminRequest{Name: "Intruso", Email: "owner@edit.com"})
		require.ErrorIs(t, err, ErrDuplicateAdmin)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		_, err := p.EnsureAdmin(ctx, "missing", AdminRequest{Name: "Alguém", Email: "x@y.com"})
		require.ErrorIs(t, err, tenant.ErrNotFound)
	})
}

func TestEnsureAdminRemovesIdentityWhenProfileFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.provisioner().Provision(ctx, validRequest("Farmácia Perfil", "owner@perfil.com"))
	require.NoError(t, err)

	ids := &fakeIdentities{}
	profiles := failingProfiles{Store: f.profiles, err: errors.New("profiles table locked")}
	p := f.provisioner(func(d *Deps) {
		d.Identities = ids
		d.Profiles = profiles
	})

	out, err := p.EnsureAdmin(ctx, res.Tenant.ID, AdminRequest{Name: "Novo Admin", Email: "novo@perfil.com"})
	require.Nil(t, out)
	requireCode(t, err, errutil.StatusInternal, "profile_persistence_failed")
	require.Equal(t, []string{"identity-1"}, ids.deleted)
}
