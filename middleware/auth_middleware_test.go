package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/princinho/stackforum/apperrors"
	"github.com/princinho/stackforum/models"
	"github.com/princinho/stackforum/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

type authFunc func(r *http.Request) (bson.ObjectID, error)

func (f authFunc) Authenticate(r *http.Request) (bson.ObjectID, error) { return f(r) }

func newRouter(auth Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(auth)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, ok := CurrentUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": id.Hex(), "ok": ok})
	})
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestAuthMiddleware(t *testing.T) {
	id := bson.NewObjectID()

	tests := []struct {
		name     string
		auth     authFunc
		wantCode int
		wantKind string
	}{
		{
			name:     "accepts valid caller",
			auth:     func(*http.Request) (bson.ObjectID, error) { return id, nil },
			wantCode: http.StatusOK,
		},
		{
			name: "missing credential",
			auth: func(*http.Request) (bson.ObjectID, error) {
				return bson.NilObjectID, apperrors.Unauthenticated("authentication required")
			},
			wantCode: http.StatusUnauthorized,
			wantKind: "unauthenticated",
		},
		{
			name: "expired credential",
			auth: func(*http.Request) (bson.ObjectID, error) {
				return bson.NilObjectID, apperrors.InvalidCredential("invalid or expired token")
			},
			wantCode: http.StatusForbidden,
			wantKind: "invalid_credential",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := serve(newRouter(tt.auth))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, body["kind"])
				return
			}
			assert.Equal(t, id.Hex(), body["userId"])
			assert.Equal(t, true, body["ok"])
		})
	}
}

func TestRequireRole(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewMemoryUsers()
	admin := &models.User{Email: "root@example.com", Role: models.RoleAdmin}
	member := &models.User{Email: "ada@example.com", Role: models.RoleUser}
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, member))

	as := func(id bson.ObjectID) authFunc {
		return func(*http.Request) (bson.ObjectID, error) { return id, nil }
	}

	rec, _ := serve(newRouter(as(admin.ID), RequireRole(users, models.RoleAdmin)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := serve(newRouter(as(member.ID), RequireRole(users, models.RoleAdmin)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient permissions", body["error"])

	rec, _ = serve(newRouter(as(bson.NewObjectID()), RequireRole(users, models.RoleAdmin)))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAbortHidesInternalCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	Abort(c, apperrors.Internal("insert user", assert.AnError))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.Contains(t, rec.Body.String(), `"kind":"internal"`)
}
