package ticket

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusPending  Status = "pending"
	StatusAnswered Status = "answered"
	StatusClosed   Status = "closed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusPending, StatusAnswered, StatusClosed:
		return true
	default:
		return false
	}
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type Sender string

const (
	SenderUser    Sender = "user"
	SenderSupport Sender = "support"
)

type Attachment struct {
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type Ticket struct {
	ID           string                           `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	Code         string                           `gorm:"column:code;index;type:varchar(32)" json:"code"`
	TenantID     string                           `gorm:"column:tenant_id;index;type:varchar(32)" json:"tenant_id"`
	Origin       string                           `gorm:"column:origin;type:varchar(20)" json:"origin"`
	Subject      string                           `gorm:"column:subject;type:varchar(255)" json:"subject"`
	Message      string                           `gorm:"column:message;type:text" json:"message"`
	ContactName  string                           `gorm:"column:contact_name;type:varchar(255)" json:"contact_name"`
	ContactEmail string                           `gorm:"column:contact_email;type:varchar(255)" json:"contact_email"`
	Status       Status                           `gorm:"column:status;index;type:varchar(20)" json:"status"`
	Urgency      Urgency                          `gorm:"column:urgency;index;type:varchar(20)" json:"urgency"`
	Score        int                              `gorm:"column:score" json:"score"`
	Category     string                           `gorm:"column:category;type:varchar(40)" json:"category"`
	Attachments  datatypes.JSONType[[]Attachment] `gorm:"column:attachments" json:"attachments"`
	Metadata     datatypes.JSONMap                `gorm:"column:metadata" json:"metadata,omitempty"`
	Messages     []Message                        `gorm:"foreignKey:TicketID" json:"messages,omitempty"`
	CreatedAt    time.Time                        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time                        `gorm:"column:updated_at" json:"updated_at"`
}

func (Ticket) TableName() string { return "support_tickets" }

type Message struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	TicketID  string    `gorm:"column:ticket_id;index;type:varchar(32)" json:"ticket_id"`
	Sender    Sender    `gorm:"column:sender;type:varchar(20)" json:"sender"`
	Body      string    `gorm:"column:body;type:text" json:"body"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Message) TableName() string { return "ticket_messages" }
