package integration

import "time"

const (
	AccessSuccess = "success"
	AccessDenied  = "denied"
)

// Response is the envelope every store-facing endpoint answers with.
type Response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status_code"`
	Data       any    `json:"data,omitempty"`
	Error      string `json:"error,omitempty"`
}

func ok(code int, data any) *Response {
	return &Response{Success: true, StatusCode: code, Data: data}
}

func fail(code int, msg string, data any) *Response {
	return &Response{Success: false, StatusCode: code, Error: msg, Data: data}
}

type AccessLog struct {
	ID        string    `gorm:"column:id;primaryKey;type:varchar(32)" json:"id"`
	TenantID  string    `gorm:"column:tenant_id;index;type:varchar(32)" json:"tenant_id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64)" json:"user_id"`
	Origin    string    `gorm:"column:origin;type:varchar(20)" json:"origin"`
	IP        string    `gorm:"column:ip;type:varchar(64)" json:"ip,omitempty"`
	Device    string    `gorm:"column:device;type:varchar(255)" json:"device,omitempty"`
	Status    string    `gorm:"column:status;type:varchar(20)" json:"status"`
	Message   string    `gorm:"column:message" json:"message"`
	Timestamp time.Time `gorm:"column:logged_at;index" json:"timestamp"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (AccessLog) TableName() string { return "access_logs" }
