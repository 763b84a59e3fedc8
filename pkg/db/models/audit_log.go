package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// AuditLog is an immutable record of a mutating action. Rows are append-only;
// no update or delete path exists anywhere in the codebase.
type AuditLog struct {
	ID         uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Action     string          `gorm:"column:action;not null;index"`
	EntityType string          `gorm:"column:entity_type;not null"`
	EntityID   string          `gorm:"column:entity_id;not null;index"`
	ActorType  enums.ActorType `gorm:"column:actor_type;not null"`
	ActorID    *uuid.UUID      `gorm:"column:actor_id;type:uuid"`
	ActorEmail *string         `gorm:"column:actor_email"`
	OldValues  json.RawMessage `gorm:"column:old_values;type:jsonb"`
	NewValues  json.RawMessage `gorm:"column:new_values;type:jsonb"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
