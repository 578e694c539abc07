package tenant

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPendingSetup Status = "pending_setup"
	StatusPending      Status = "pending"
	StatusTrial        Status = "trial"
	StatusActive       Status = "active"
	StatusPastDue      Status = "past_due"
	StatusBlocked      Status = "blocked"
	StatusSuspended    Status = "suspended"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingSetup, StatusPending, StatusTrial, StatusActive, StatusPastDue, StatusBlocked, StatusSuspended:
		return true
	default:
		return false
	}
}

const (
	DomainStatusNone     = ""
	DomainStatusPending  = "pending"
	DomainStatusVerified = "verified"

	OnboardingCompleted = "completed"
)

// Tenant is one pharmacy customer account.
type Tenant struct {
	ID                     string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Code                   string     `gorm:"column:code;index;type:varchar(20)" json:"code"`
	DisplayName            string     `gorm:"column:display_name;type:varchar(255);not null" json:"fantasy_name"`
	LegalName              string     `gorm:"column:legal_name;type:varchar(255)" json:"corporate_name"`
	TaxID                  string     `gorm:"column:tax_id;type:varchar(32)" json:"cnpj"`
	Phone                  string     `gorm:"column:phone;type:varchar(32)" json:"phone"`
	Email                  string     `gorm:"column:email;type:varchar(255)" json:"email"`
	ResponsibleName        string     `gorm:"column:responsible_name;type:varchar(255)" json:"responsible_name"`
	Slug                   string     `gorm:"column:slug;uniqueIndex;type:varchar(120);not null" json:"slug"`
	PlanCode               string     `gorm:"column:plan_code;index;type:varchar(40)" json:"plan_code"`
	Status                 Status     `gorm:"column:status;index;type:varchar(20)" json:"status"`
	AdminBaseURL           string     `gorm:"column:admin_base_url" json:"admin_base_url"`
	StoreBaseURL           string     `gorm:"column:store_base_url" json:"store_base_url"`
	CustomAdminDomain      string     `gorm:"column:custom_admin_domain" json:"custom_admin_domain,omitempty"`
	CustomStoreDomain      string     `gorm:"column:custom_store_domain" json:"custom_store_domain,omitempty"`
	DomainStatus           string     `gorm:"column:domain_status;type:varchar(20)" json:"domain_status,omitempty"`
	DomainVerificationCode string     `gorm:"column:domain_verification_code" json:"-"`
	MonthlyRevenue         float64    `gorm:"column:monthly_revenue" json:"monthly_revenue"`
	ActiveUsers            int        `gorm:"column:active_users" json:"active_users"`
	RiskScore              int        `gorm:"column:risk_score" json:"risk_score"`
	OnboardingStatus       string     `gorm:"column:onboarding_status;type:varchar(20)" json:"onboarding_status"`
	BlockedReason          string     `gorm:"column:blocked_reason" json:"blocked_reason,omitempty"`
	LastPaymentAt          *time.Time `gorm:"column:last_payment_at" json:"last_payment_at,omitempty"`
	CurrentPeriodStart     *time.Time `gorm:"column:current_period_start" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"column:current_period_end" json:"current_period_end,omitempty"`
	NextPaymentDueAt       *time.Time `gorm:"column:next_payment_due_at;index" json:"next_payment_due_at,omitempty"`
	LastActivityAt         *time.Time `gorm:"column:last_activity_at" json:"last_activity_at,omitempty"`
	CreatedAt              time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Tenant) TableName() string { return "tenants" }

// DisplayID is the short id shown in lists: the first 8 characters, uppercased.
func (t *Tenant) DisplayID() string {
	id := t.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// View is the API representation of a tenant.
type View struct {
	*Tenant
	DisplayID string `json:"display_id"`
	AdminURL  string `json:"admin_url"`
	StoreURL  string `json:"store_url"`
}

func (t *Tenant) View() View {
	return View{
		Tenant:    t,
		DisplayID: t.DisplayID(),
		AdminURL:  AppURL(t.AdminBaseURL, t.Slug),
		StoreURL:  AppURL(t.StoreBaseURL, t.Slug),
	}
}

// AppURL routes a tenant-agnostic app to the tenant: <base>?tenant=<slug>.
func AppURL(base, slug string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || slug == "" {
		return ""
	}
	return base + "?tenant=" + slug
}
