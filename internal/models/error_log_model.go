package models

import "time"

// Log levels for ErrorLog entries.
const (
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// ErrorLog 审计/错误日志（仅追加，管理面板读取）
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Level     string    `gorm:"size:8;not null;index" json:"level"`
	Source    string    `gorm:"size:32;not null" json:"source"`
	Message   string    `gorm:"not null" json:"message"`
	Details   string    `json:"details"`
	IP        string    `gorm:"size:45" json:"ip"`
	UserID    *uint     `json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ErrorLog) TableName() string {
	return "error_logs"
}
