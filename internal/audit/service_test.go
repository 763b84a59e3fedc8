package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

type fakeRepository struct {
	createFn func(ctx context.Context, entry *models.AuditLog) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if f.createFn != nil {
		return f.createFn(ctx, entry)
	}
	return nil
}

func (f *fakeRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	return nil, nil
}

func TestService_Record(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	actorID := uuid.New()
	email := "staff@docuflow.io"
	var created *models.AuditLog
	repo.createFn = func(ctx context.Context, entry *models.AuditLog) error {
		created = entry
		return nil
	}

	input := RecordInput{
		Action:     "invoice_created",
		EntityType: "invoice",
		EntityID:   uuid.NewString(),
		Actor:      Actor{Type: enums.ActorTypeStaff, ID: &actorID, Email: &email},
		NewValues:  map[string]string{"status": "pending"},
	}
	if err := svc.Record(context.Background(), nil, input); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if created == nil {
		t.Fatal("expected audit entry to be created")
	}
	if created.Action != "invoice_created" || created.EntityType != "invoice" {
		t.Fatalf("unexpected entry data: %+v", created)
	}
	if created.ActorType != enums.ActorTypeStaff || created.ActorID == nil || *created.ActorID != actorID {
		t.Fatalf("missing actor metadata: %+v", created)
	}
	if created.OldValues != nil {
		t.Fatalf("expected nil old values, got %s", created.OldValues)
	}

	var snapshot struct {
		Version int               `json:"version"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(created.NewValues, &snapshot); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snapshot.Version != 1 || snapshot.Data["status"] != "pending" {
		t.Fatalf("unexpected snapshot payload: %+v", snapshot)
	}
}

func TestService_RecordValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name  string
		input RecordInput
	}{
		{
			name:  "missing action",
			input: RecordInput{EntityType: "invoice", EntityID: "x", Actor: SystemActor()},
		},
		{
			name:  "missing entity",
			input: RecordInput{Action: "invoice_created", Actor: SystemActor()},
		},
		{
			name:  "invalid actor type",
			input: RecordInput{Action: "invoice_created", EntityType: "invoice", EntityID: "x", Actor: Actor{Type: enums.ActorType("robot")}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Record(context.Background(), nil, tc.input); err == nil {
				t.Fatalf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestService_RecordRepoError(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	expectedErr := errors.New("boom")
	repo.createFn = func(ctx context.Context, entry *models.AuditLog) error {
		return expectedErr
	}

	input := RecordInput{
		Action:     "invoice_cancelled",
		EntityType: "invoice",
		EntityID:   "x",
		Actor:      GatewayActor(),
	}
	if err := svc.Record(context.Background(), nil, input); !errors.Is(err, expectedErr) {
		t.Fatalf("expected repo error to bubble up, got %v", err)
	}
}
