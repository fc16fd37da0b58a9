package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"spendlens/internal/logger"
	"spendlens/internal/models"
)

// auditService records audit events in the audit_logs table.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer backed by db.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

func marshalChanges(action string, changes map[string]any) string {
	if changes == nil {
		return ""
	}
	data, err := json.Marshal(changes)
	if err != nil {
		logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
		return "{}"
	}
	return string(data)
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      marshalChanges(action, changes),
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", userID,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}

// logAuditService writes audit events to the application log. It is used
// when expenses live outside the SQL database.
type logAuditService struct{}

// NewLogAuditService creates an AuditServicer that only logs.
func NewLogAuditService() AuditServicer {
	return logAuditService{}
}

// Log writes the audit event as a structured log line.
func (logAuditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	logger.Named("audit").Infow(action,
		"user_id", userID,
		"resource_type", resourceType,
		"resource_id", resourceID,
		"ip", ipAddress,
		"changes", marshalChanges(action, changes),
	)
}
