package identity

import (
	"time"

	"gorm.io/datatypes"
)

// Metadata is stored with the identity and echoed to downstream apps.
type Metadata struct {
	Role     string `json:"role"`
	FullName string `json:"full_name"`
	TenantID string `json:"tenant_id"`
}

type Identity struct {
	ID             string                       `gorm:"column:id;primaryKey;type:varchar(36)" json:"id"`
	Email          string                       `gorm:"column:email;uniqueIndex;type:varchar(255);not null" json:"email"`
	PasswordHash   string                       `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	EmailConfirmed bool                         `gorm:"column:email_confirmed" json:"email_confirmed"`
	TenantID       string                       `gorm:"column:tenant_id;index;type:varchar(32)" json:"tenant_id"`
	Metadata       datatypes.JSONType[Metadata] `gorm:"column:metadata" json:"metadata"`
	CreatedAt      time.Time                    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time                    `gorm:"column:updated_at" json:"updated_at"`
}

func (Identity) TableName() string { return "identities" }

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
