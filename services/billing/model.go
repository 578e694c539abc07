package billing

import "time"

const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"

	PaymentStatusConfirmed = "confirmed"

	CurrencyBRL = "BRL"
)

type Invoice struct {
	ID        string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Code      string     `gorm:"column:code;index;type:varchar(32)" json:"code"`
	TenantID  string     `gorm:"column:tenant_id;index;type:varchar(32)" json:"tenant_id"`
	PlanCode  string     `gorm:"column:plan_code;type:varchar(40)" json:"plan_code"`
	Amount    float64    `gorm:"column:amount" json:"amount"`
	Currency  string     `gorm:"column:currency;type:varchar(3)" json:"currency"`
	Status    string     `gorm:"column:status;type:varchar(20)" json:"status"`
	DueDate   time.Time  `gorm:"column:due_date" json:"due_date"`
	PaidAt    *time.Time `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (Invoice) TableName() string { return "invoices" }

type Payment struct {
	ID          string     `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	TenantID    string     `gorm:"column:tenant_id;index;type:varchar(32)" json:"tenant_id"`
	InvoiceID   string     `gorm:"column:invoice_id;index;type:varchar(32)" json:"invoice_id"`
	Amount      float64    `gorm:"column:amount" json:"amount"`
	Method      string     `gorm:"column:method;type:varchar(30)" json:"method"`
	Status      string     `gorm:"column:status;type:varchar(20)" json:"status"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }
