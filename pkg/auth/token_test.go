package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "docuflow",
		ExpirationMinutes: 5,
	}
}

func TestIssueAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()
	companyID := uuid.New()

	token, err := IssueAccessToken(cfg, userID, "ops@docuflow.io", enums.ActorTypeTenant, &companyID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ops@docuflow.io", claims.Email)
	assert.Equal(t, enums.ActorTypeTenant, claims.ActorType)
	require.NotNil(t, claims.CompanyID)
	assert.Equal(t, companyID, *claims.CompanyID)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := IssueAccessToken(cfg, uuid.New(), "a@b.c", enums.ActorTypeStaff, nil)
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)
}

func TestIssueAccessTokenRejectsInvalidActorType(t *testing.T) {
	_, err := IssueAccessToken(testJWTConfig(), uuid.New(), "a@b.c", enums.ActorType("robot"), nil)
	assert.Error(t, err)
}
