package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)

	token, err := m.GenerateAccessToken("user-1", "admin")
	require.NoError(t, err)

	claims, err := m.ParseAndValidate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestJWTRejectsExpiredAndForeignTokens(t *testing.T) {
	m := NewJWTManager("secret", time.Minute)
	token, err := m.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	later := NewJWTManager("secret", time.Minute)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ParseAndValidate(token)
	assert.Error(t, err)

	other := NewJWTManager("another-secret", time.Minute)
	_, err = other.ParseAndValidate(token)
	assert.Error(t, err)
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewJWTManager("secret", time.Hour)
	token, err := m.GenerateAccessToken("user-1", "user")
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", AuthRequired(m), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c)+":"+GetUserRole(c))
	})

	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "user-1:user"},
		{"lowercase scheme", "bearer " + token, http.StatusOK, "user-1:user"},
		{"missing header", "", http.StatusUnauthorized, `{"error":"missing Authorization header"}`},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, `{"error":"invalid Authorization header format"}`},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, `{"error":"invalid or expired token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.body, w.Body.String())
		})
	}
}

func TestBcryptPasswordHasher(t *testing.T) {
	h := NewBcryptPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong"))

	assert.Equal(t, bcrypt.DefaultCost, NewBcryptPasswordHasher(0).cost)
}
