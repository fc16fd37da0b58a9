package models

// AuditLog records expense mutations for later review.
type AuditLog struct {
	Base
	UserID       string `gorm:"type:varchar(128);not null;index" json:"userId"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resourceType"`
	ResourceID   string `json:"resourceId"`
	IPAddress    string `json:"ipAddress"`
	Changes      string `json:"changes,omitempty"`
}
