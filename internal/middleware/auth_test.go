package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"knightgaming.gg/backend/internal/entity"
)

type stubUserRepo struct {
	users map[string]*entity.User
}

func (r *stubUserRepo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (r *stubUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (r *stubUserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) FindByStripeCustomerID(ctx context.Context, customerID string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *stubUserRepo) FindAll(ctx context.Context, search string, limit, offset int) ([]entity.User, int64, error) {
	return nil, 0, nil
}
func (r *stubUserRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }
func (r *stubUserRepo) IncrementLeaderboardEntries(ctx context.Context, userID uuid.UUID) error {
	return nil
}
func (r *stubUserRepo) IncrementReviewsWritten(ctx context.Context, userID uuid.UUID, delta int) error {
	return nil
}
func (r *stubUserRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

func signToken(t *testing.T, secret string, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func setupRouter(t *testing.T, user *entity.User) (*gin.Engine, *AuthMiddleware) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &stubUserRepo{users: map[string]*entity.User{}}
	if user != nil {
		repo.users[user.ID.String()] = user
	}

	m := NewAuthMiddleware(repo)
	router := gin.New()
	router.GET("/private", m.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":   c.GetString("user_id"),
			"user_role": c.GetString("user_role"),
		})
	})
	router.GET("/admin", m.RequireAuth(), m.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/mod", m.RequireAuth(), m.RequireModerator(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/open", m.OptionalAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})
	return router, m
}

func doRequest(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	user := &entity.User{ID: uuid.New(), Username: "gamer", Role: entity.RoleUser}
	router, m := setupRouter(t, user)

	t.Run("missing token", func(t *testing.T) {
		w := doRequest(router, "/private", "")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := doRequest(router, "/private", "not.a.jwt")
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, m.secret, user.ID.String(), -time.Minute)
		w := doRequest(router, "/private", token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token for deleted user", func(t *testing.T) {
		token := signToken(t, m.secret, uuid.NewString(), time.Hour)
		w := doRequest(router, "/private", token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, m.secret, user.ID.String(), time.Hour)
		w := doRequest(router, "/private", token)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), user.ID.String())
	})

	t.Run("token via query parameter", func(t *testing.T) {
		token := signToken(t, m.secret, user.ID.String(), time.Hour)
		req := httptest.NewRequest(http.MethodGet, "/private?token="+token, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token := signToken(t, "some-other-secret", user.ID.String(), time.Hour)
		w := doRequest(router, "/private", token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRoleGates(t *testing.T) {
	tests := []struct {
		role      string
		wantAdmin int
		wantMod   int
	}{
		{entity.RoleUser, http.StatusForbidden, http.StatusForbidden},
		{entity.RoleModerator, http.StatusForbidden, http.StatusOK},
		{entity.RoleAdmin, http.StatusOK, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			user := &entity.User{ID: uuid.New(), Username: "u-" + tt.role, Role: tt.role}
			router, m := setupRouter(t, user)
			token := signToken(t, m.secret, user.ID.String(), time.Hour)

			require.Equal(t, tt.wantAdmin, doRequest(router, "/admin", token).Code)
			require.Equal(t, tt.wantMod, doRequest(router, "/mod", token).Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	user := &entity.User{ID: uuid.New(), Username: "gamer", Role: entity.RoleUser}
	router, m := setupRouter(t, user)

	w := doRequest(router, "/open", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, "/open", "broken-token")
	require.Equal(t, http.StatusOK, w.Code, "bad token is ignored, not rejected")

	token := signToken(t, m.secret, user.ID.String(), time.Hour)
	w = doRequest(router, "/open", token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), user.ID.String())
}
