package controllers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geniustaku/docuflow-backend/api/responses"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
	"github.com/geniustaku/docuflow-backend/pkg/logger"
)

// AuditService describes the audit methods used by the HTTP controllers.
type AuditService interface {
	ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error)
}

type auditEntryResponse struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	ActorType  string          `json:"actor_type"`
	ActorID    *string         `json:"actor_id,omitempty"`
	ActorEmail *string         `json:"actor_email,omitempty"`
	OldValues  json.RawMessage `json:"old_values,omitempty"`
	NewValues  json.RawMessage `json:"new_values,omitempty"`
	CreatedAt  string          `json:"created_at"`
}

// AdminAuditList returns the audit trail for one entity, newest first.
func AdminAuditList(svc AuditService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		entityType := chi.URLParam(r, "entityType")
		entityID := chi.URLParam(r, "entityID")
		if entityType == "" || entityID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity type and id are required"))
			return
		}

		entries, err := svc.ListByEntity(ctx, entityType, entityID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]auditEntryResponse, 0, len(entries))
		for i := range entries {
			entry := &entries[i]
			resp := auditEntryResponse{
				ID:         entry.ID.String(),
				Action:     entry.Action,
				EntityType: entry.EntityType,
				EntityID:   entry.EntityID,
				ActorType:  entry.ActorType.String(),
				ActorEmail: entry.ActorEmail,
				OldValues:  entry.OldValues,
				NewValues:  entry.NewValues,
				CreatedAt:  entry.CreatedAt.UTC().Format(timeFormat),
			}
			if entry.ActorID != nil {
				actorID := entry.ActorID.String()
				resp.ActorID = &actorID
			}
			out = append(out, resp)
		}
		responses.WriteSuccess(w, map[string]any{"entries": out})
	}
}
