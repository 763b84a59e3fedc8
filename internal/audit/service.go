package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// snapshotVersion tags serialized old/new value payloads so future field
// changes don't break older log entries.
const snapshotVersion = 1

// Actor identifies who performed a mutating action.
type Actor struct {
	Type  enums.ActorType
	ID    *uuid.UUID
	Email *string
}

// SystemActor is used for mutations not attributable to a request identity.
func SystemActor() Actor {
	return Actor{Type: enums.ActorTypeSystem}
}

// GatewayActor attributes a mutation to a verified gateway webhook.
func GatewayActor() Actor {
	return Actor{Type: enums.ActorTypeGateway}
}

// RecordInput captures one audit entry.
type RecordInput struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      Actor
	OldValues  any
	NewValues  any
}

// Service appends immutable audit entries.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

type service struct {
	repo Repository
}

// NewService wires an audit service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) error {
	if input.Action == "" {
		return fmt.Errorf("action is required")
	}
	if input.EntityType == "" || input.EntityID == "" {
		return fmt.Errorf("entity type and id are required")
	}
	if !input.Actor.Type.IsValid() {
		return fmt.Errorf("invalid actor type %q", input.Actor.Type)
	}

	oldValues, err := Snapshot(input.OldValues)
	if err != nil {
		return fmt.Errorf("snapshot old values: %w", err)
	}
	newValues, err := Snapshot(input.NewValues)
	if err != nil {
		return fmt.Errorf("snapshot new values: %w", err)
	}

	entry := &models.AuditLog{
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		ActorType:  input.Actor.Type,
		ActorID:    input.Actor.ID,
		ActorEmail: input.Actor.Email,
		OldValues:  oldValues,
		NewValues:  newValues,
	}

	return s.repo.WithTx(tx).Create(ctx, entry)
}

func (s *service) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	if entityType == "" || entityID == "" {
		return nil, fmt.Errorf("entity type and id are required")
	}
	return s.repo.ListByEntity(ctx, entityType, entityID)
}

// Snapshot serializes a value into the versioned, schema-less jsonb payload
// stored in old_values/new_values.
func Snapshot(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	payload := struct {
		Version int `json:"version"`
		Data    any `json:"data"`
	}{Version: snapshotVersion, Data: value}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
