package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courseloop/marketplace-api/internal/models"
	appErrors "github.com/courseloop/marketplace-api/pkg/errors"
)

func newAuthService(repo authUserRepository) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test_secret",
		Expiration: time.Hour,
		Issuer:     "course-marketplace",
	})
}

func TestIssueTokenResolvesStoredRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"1": {ID: "1", Email: "boss@example.com", Role: models.RoleAdmin},
	}}
	svc := newAuthService(repo)

	resp, err := svc.IssueToken(context.Background(), models.TokenRequest{Email: "boss@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "boss@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestIssueTokenUnknownEmailDefaultsToStudent(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	resp, err := svc.IssueToken(context.Background(), models.TokenRequest{Email: "new@example.com"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestIssueTokenRejectsInvalidEmail(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	_, err := svc.IssueToken(context.Background(), models.TokenRequest{Email: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsForeignSignature(t *testing.T) {
	issuer := newAuthService(&mockUserRepo{})
	resp, err := issuer.IssueToken(context.Background(), models.TokenRequest{Email: "kid@example.com"})
	require.NoError(t, err)

	verifier := NewAuthService(&mockUserRepo{}, nil, nil, AuthConfig{Secret: "other_secret", Expiration: time.Hour})
	_, err = verifier.ValidateToken(resp.Token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := newAuthService(&mockUserRepo{})

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
