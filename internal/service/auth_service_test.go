package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyplanhq/studyplan-api/internal/models"
	appErrors "github.com/studyplanhq/studyplan-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	refreshTokens    map[string]*models.RefreshToken
	createRefreshErr error
	lastLoginUpdated bool
	revokedAll       bool
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.userByEmail == nil {
		return nil, sql.ErrNoRows
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.userByID != nil {
		return m.userByID, nil
	}
	if m.userByEmail != nil {
		return m.userByEmail, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.createRefreshErr != nil {
		return m.createRefreshErr
	}
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	rt, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return rt, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, token := range m.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "ana@example.com",
		PasswordHash: string(hash),
		FullName:     "Ana Souza",
		Role:         models.RoleStudent,
		Active:       true,
	}
}

func testAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "studyplan-api",
	})
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, "secret123")}
	svc := testAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.True(t, repo.lastLoginUpdated)
	require.Contains(t, repo.refreshTokens, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, "secret123")}
	svc := testAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "wrong",
	})

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc := testAuthService(&mockAuthRepo{})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "secret123",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "secret123")
	user.Active = false
	svc := testAuthService(&mockAuthRepo{userByEmail: user})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "secret123",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginSingleSessionRevokesPrevious(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, "secret123")}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		SingleSession:      true,
	})

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ana@example.com",
		Password: "secret123",
	})

	require.NoError(t, err)
	assert.True(t, repo.revokedAll)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	user := activeUser(t, "secret123")
	repo := &mockAuthRepo{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"old-token": {
				ID:        "rt-1",
				UserID:    user.ID,
				Token:     "old-token",
				ExpiresAt: time.Now().UTC().Add(time.Hour),
			},
		},
	}
	svc := testAuthService(repo)

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.True(t, repo.refreshTokens["old-token"].Revoked)
	assert.Contains(t, repo.refreshTokens, resp.RefreshToken)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	repo := &mockAuthRepo{
		refreshTokens: map[string]*models.RefreshToken{
			"stale": {
				ID:        "rt-2",
				UserID:    "user-1",
				Token:     "stale",
				ExpiresAt: time.Now().UTC().Add(-time.Minute),
			},
		},
	}
	svc := testAuthService(repo)

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutRejectsForeignToken(t *testing.T) {
	repo := &mockAuthRepo{
		refreshTokens: map[string]*models.RefreshToken{
			"token-a": {
				ID:        "rt-3",
				UserID:    "user-1",
				Token:     "token-a",
				ExpiresAt: time.Now().UTC().Add(time.Hour),
			},
		},
	}
	svc := testAuthService(repo)

	err := svc.Logout(context.Background(), "token-a", "someone-else")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Logout(context.Background(), "token-a", "user-1"))
	assert.True(t, repo.refreshTokens["token-a"].Revoked)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(&mockAuthRepo{})

	_, err := svc.ValidateToken("not-a-jwt")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
