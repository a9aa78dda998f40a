package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaki-dev/jadwal-api/internal/models"
)

func roleRouter(role models.UserRole, withClaims bool, guard gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if withClaims {
		router.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "u1", Role: role})
			c.Next()
		})
	}
	router.GET("/guarded", guard, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name       string
		role       models.UserRole
		withClaims bool
		want       int
	}{
		{"allowed role", models.RoleStaff, true, http.StatusOK},
		{"role not in the set", models.RoleTeacher, true, http.StatusForbidden},
		{"no claims on context", "", false, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := roleRouter(tt.role, tt.withClaims, RequireRoles(models.RoleAdmin, models.RoleStaff))

			w := httptest.NewRecorder()
			req, err := http.NewRequest(http.MethodGet, "/guarded", nil)
			require.NoError(t, err)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def.ghi")
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	token, ok = bearerToken("bearer abc")
	require.True(t, ok, "scheme comparison is case-insensitive")
	assert.Equal(t, "abc", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, ok := bearerToken(header)
		assert.False(t, ok, "header %q must be rejected", header)
	}
}
