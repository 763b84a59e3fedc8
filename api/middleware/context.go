package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxActorType contextKey = "actor_type"
	ctxCompanyID contextKey = "company_id"
	ctxEmail     contextKey = "email"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func ActorTypeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxActorType).(string); ok {
		return v
	}
	return ""
}

func EmailFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmail).(string); ok {
		return v
	}
	return ""
}

// CompanyIDFromContext returns the tenant scope of the request, or nil for
// staff tokens that carry no company.
func CompanyIDFromContext(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxCompanyID).(uuid.UUID); ok {
		return &v
	}
	return nil
}

// WithIdentity injects an authenticated identity into the context. Exposed
// for handler tests.
func WithIdentity(ctx context.Context, userID, actorType, email string, companyID *uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	ctx = context.WithValue(ctx, ctxActorType, actorType)
	ctx = context.WithValue(ctx, ctxEmail, email)
	if companyID != nil {
		ctx = context.WithValue(ctx, ctxCompanyID, *companyID)
	}
	return ctx
}
