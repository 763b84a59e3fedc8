package plans

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/geniustaku/docuflow-backend/internal/audit"
	"github.com/geniustaku/docuflow-backend/pkg/db/models"
	pkgerrors "github.com/geniustaku/docuflow-backend/pkg/errors"
)

type fakeRepository struct {
	plans map[uuid.UUID]*models.SubscriptionPlan
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{plans: map[uuid.UUID]*models.SubscriptionPlan{}}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, plan *models.SubscriptionPlan) error {
	if plan.ID == uuid.Nil {
		plan.ID = uuid.New()
	}
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakeRepository) Update(ctx context.Context, plan *models.SubscriptionPlan) error {
	f.plans[plan.ID] = plan
	return nil
}

func (f *fakeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	return f.plans[id], nil
}

func (f *fakeRepository) FindBySlug(ctx context.Context, slug string) (*models.SubscriptionPlan, error) {
	for _, p := range f.plans {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, activeOnly bool) ([]models.SubscriptionPlan, error) {
	var out []models.SubscriptionPlan
	for _, p := range f.plans {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

type fakeCounter struct {
	count int64
}

func (f *fakeCounter) CountByPlan(ctx context.Context, planID uuid.UUID) (int64, error) {
	return f.count, nil
}

type fakeAudit struct {
	entries []audit.RecordInput
}

func (f *fakeAudit) Record(ctx context.Context, tx *gorm.DB, input audit.RecordInput) error {
	f.entries = append(f.entries, input)
	return nil
}

func (f *fakeAudit) ListByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T) (*Service, *fakeRepository, *fakeCounter, *fakeAudit) {
	t.Helper()
	repo := newFakeRepository()
	counter := &fakeCounter{}
	auditSvc := &fakeAudit{}
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		Companies: counter,
		Audit:     auditSvc,
		TxRunner:  fakeTxRunner{},
	})
	require.NoError(t, err)
	return svc, repo, counter, auditSvc
}

func TestCreatePlan(t *testing.T) {
	svc, _, _, auditSvc := newTestService(t)

	plan, err := svc.Create(context.Background(), audit.SystemActor(), CreateInput{
		Name:         "Professional Tier",
		MonthlyPrice: decimal.RequireFromString("499.00"),
		Features:     []string{"pdf_conversion", "ocr"},
	})
	require.NoError(t, err)

	assert.Equal(t, "professional-tier", plan.Slug)
	assert.Equal(t, "standard", plan.PlanType)
	assert.Equal(t, -1, plan.APICallQuota)
	assert.True(t, plan.Active)
	require.Len(t, auditSvc.entries, 1)
	assert.Equal(t, "plan_created", auditSvc.entries[0].Action)
}

func TestCreatePlanDuplicateSlug(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), audit.SystemActor(), CreateInput{Name: "Starter"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), audit.SystemActor(), CreateInput{Name: "Starter"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreatePlanValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	badQuota := -5
	tests := []struct {
		name  string
		input CreateInput
	}{
		{"missing name", CreateInput{}},
		{"bad slug", CreateInput{Name: "Starter", Slug: "Bad_Slug!"}},
		{"negative price", CreateInput{Name: "Starter", MonthlyPrice: decimal.RequireFromString("-1")}},
		{"bad quota", CreateInput{Name: "Starter", APICallQuota: &badQuota}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), audit.SystemActor(), tc.input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestUpdatePlanPartialPatch(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	plan, err := svc.Create(context.Background(), audit.SystemActor(), CreateInput{Name: "Starter"})
	require.NoError(t, err)

	newPrice := decimal.RequireFromString("299.00")
	updated, err := svc.Update(context.Background(), audit.SystemActor(), plan.ID, UpdateInput{
		MonthlyPrice: &newPrice,
	})
	require.NoError(t, err)
	assert.True(t, updated.MonthlyPrice.Equal(newPrice))
	// slug never changes after creation
	assert.Equal(t, "starter", updated.Slug)
	assert.Equal(t, "Starter", repo.plans[plan.ID].Name)
}

func TestUpdatePlanEmptyPatch(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), audit.SystemActor(), uuid.New(), UpdateInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeactivatePlanWithSubscribers(t *testing.T) {
	svc, _, counter, _ := newTestService(t)

	plan, err := svc.Create(context.Background(), audit.SystemActor(), CreateInput{Name: "Starter"})
	require.NoError(t, err)

	counter.count = 3
	err = svc.Deactivate(context.Background(), audit.SystemActor(), plan.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestDeactivatePlan(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	plan, err := svc.Create(context.Background(), audit.SystemActor(), CreateInput{Name: "Starter"})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), audit.SystemActor(), plan.ID))
	assert.False(t, repo.plans[plan.ID].Active)

	// second deactivate is a no-op
	require.NoError(t, svc.Deactivate(context.Background(), audit.SystemActor(), plan.ID))
}
