package profile

import (
	"strings"
	"time"
)

type Role string

const (
	RoleCEO     Role = "CEO"
	RoleAdmin   Role = "ADMIN"
	RoleFinance Role = "FINANCE"
	RoleSupport Role = "SUPPORT"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCEO, RoleAdmin, RoleFinance, RoleSupport:
		return true
	default:
		return false
	}
}

const StatusActive = "active"

// Profile is the denormalized user row linking an identity to a tenant.
// PasswordHash mirrors the identity credential in the legacy column format.
type Profile struct {
	ID                   string     `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Email                string     `gorm:"column:email;uniqueIndex;type:varchar(255);not null" json:"email"`
	FullName             string     `gorm:"column:full_name;type:varchar(255)" json:"full_name"`
	Role                 Role       `gorm:"column:role;type:varchar(20)" json:"role"`
	TenantID             string     `gorm:"column:tenant_id;index;type:varchar(32)" json:"tenant_id"`
	PasswordHash         string     `gorm:"column:password_hash;type:varchar(255)" json:"-"`
	TempPasswordIssuedAt *time.Time `gorm:"column:temp_password_issued_at" json:"temp_password_issued_at,omitempty"`
	Status               string     `gorm:"column:status;type:varchar(20)" json:"status"`
	CreatedAt            time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
