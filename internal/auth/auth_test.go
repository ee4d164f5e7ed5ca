package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutor-app/internal/config"
	"tutor-app/internal/logger"
	"tutor-app/internal/repository/db"
	"tutor-app/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", 32)

func newTestService(t *testing.T, cfg config.AuthConfig) *Service {
	t.Helper()
	logger.Silence()
	return NewService(memory.NewMemoryDB(), cfg)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("demo123")
	require.NoError(t, err)
	assert.NotEqual(t, "demo123", hash)
	assert.True(t, VerifyPassword(hash, "demo123"))
	assert.False(t, VerifyPassword(hash, "demo124"))
}

func TestEnsureDefaultUserIsIdempotent(t *testing.T) {
	s := newTestService(t, config.AuthConfig{})
	ctx := context.Background()

	first, err := s.EnsureDefaultUser(ctx, "demo", "demo123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	second, err := s.EnsureDefaultUser(ctx, "demo", "ignored")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, VerifyPassword(second.PasswordHash, "demo123"))
	assert.Equal(t, int64(1), s.DefaultUserID())
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestService(t, config.AuthConfig{JWTSecret: testSecret, TokenExpiration: time.Hour})
	ctx := context.Background()

	user, token, err := s.Register(ctx, "learner", "secret1")
	require.NoError(t, err)
	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "learner", claims.Username)

	_, _, err = s.Register(ctx, "learner", "secret2")
	assert.ErrorIs(t, err, db.ErrUserExists)

	token, err = s.Login(ctx, "learner", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = s.Login(ctx, "learner", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "ghost", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestTokensDisabledWithoutSecret(t *testing.T) {
	s := newTestService(t, config.AuthConfig{})
	ctx := context.Background()

	assert.False(t, s.TokensEnabled())
	_, _, err := s.Register(ctx, "learner", "secret1")
	assert.ErrorIs(t, err, ErrTokensDisabled)
	_, err = s.Login(ctx, "learner", "secret1")
	assert.ErrorIs(t, err, ErrTokensDisabled)
	_, err = s.ValidateToken("anything")
	assert.ErrorIs(t, err, ErrTokensDisabled)
}

func TestValidateTokenRejects(t *testing.T) {
	s := newTestService(t, config.AuthConfig{JWTSecret: testSecret, TokenExpiration: time.Minute})
	user := &db.User{ID: 7, Username: "learner"}

	t.Run("expired", func(t *testing.T) {
		token, err := s.GenerateToken(user)
		require.NoError(t, err)
		s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		defer func() { s.now = time.Now }()

		_, err = s.ValidateToken(token)
		assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
	})

	t.Run("other secret", func(t *testing.T) {
		other := newTestService(t, config.AuthConfig{JWTSecret: strings.Repeat("z", 32)})
		token, err := other.GenerateToken(user)
		require.NoError(t, err)

		_, err = s.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = s.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestIdentityMiddleware(t *testing.T) {
	s := newTestService(t, config.AuthConfig{JWTSecret: testSecret, TokenExpiration: time.Hour})
	token, err := s.GenerateToken(&db.User{ID: 42, Username: "learner"})
	require.NoError(t, err)

	var gotID int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := UserIDFromContext(r.Context())
		require.True(t, ok)
		gotID = id
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		required   bool
		header     string
		wantStatus int
		wantID     int64
	}{
		{name: "no header uses default user", header: "", wantStatus: http.StatusNoContent, wantID: 1},
		{name: "valid token", header: "Bearer " + token, wantStatus: http.StatusNoContent, wantID: 42},
		{name: "invalid token", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "required without header", required: true, wantStatus: http.StatusUnauthorized},
		{name: "required with token", required: true, header: "Bearer " + token, wantStatus: http.StatusNoContent, wantID: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID = 0
			s.required = tt.required
			req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			s.Identity(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantID, gotID)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, rec.Body.String(), `"code":401`)
			}
		})
	}
}
