package plan

import (
	"time"

	"gorm.io/datatypes"
)

type Limits struct {
	MaxClients int                          `json:"max_clients"`
	MaxUsers   int                          `json:"max_users"`
	MaxProducts int                          `json:"max_products,omitempty"`
}

// Plan is a subscription tier tenants are billed against.
type Plan struct {
	ID         string                       `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Code       string                       `gorm:"column:code;uniqueIndex;type:varchar(40);not null" json:"code"`
	Name       string                       `gorm:"column:name;type:varchar(120);not null" json:"name"`
	PriceMonth float64                      `gorm:"column:price_month" json:"price_month"`
	PriceYear  float64                      `gorm:"column:price_year" json:"price_year"`
	Limits     datatypes.JSONType[Limits]   `gorm:"column:limits" json:"limits"`
	Features   datatypes.JSONType[Features] `gorm:"column:features" json:"features"`
	IsActive   bool                         `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt  time.Time                    `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time                    `gorm:"column:updated_at" json:"updated_at"`
}

func (Plan) TableName() string { return "plans" }
