package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/geniustaku/docuflow-backend/pkg/config"
	"github.com/geniustaku/docuflow-backend/pkg/enums"
)

// Claims carries the identity attached to each authenticated request.
type Claims struct {
	UserID    uuid.UUID       `json:"uid"`
	Email     string          `json:"email"`
	ActorType enums.ActorType `json:"actor_type"`
	CompanyID *uuid.UUID      `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccessToken signs a bearer token for the given identity.
func IssueAccessToken(cfg config.JWTConfig, userID uuid.UUID, email string, actorType enums.ActorType, companyID *uuid.UUID) (string, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if !actorType.IsValid() {
		return "", fmt.Errorf("invalid actor type %q", actorType)
	}

	now := time.Now().UTC()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		ActorType: actorType,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL())),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ParseAccessToken validates the signature and standard claims of a token.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid access token")
	}
	if !claims.ActorType.IsValid() {
		return nil, fmt.Errorf("invalid actor type in token")
	}
	return claims, nil
}
