package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/zvrva/railbooking/internal/domain"
)

func newGatedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	admin := router.Group("/admin", RequireAuth(testSecret), RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": currentUserID(c)})
	})
	return router
}

func TestRequireAuth_MissingOrBadToken(t *testing.T) {
	router := newGatedRouter()

	testCases := []struct {
		name   string
		header string
	}{
		{"No header", ""},
		{"Not bearer", "Basic abc"},
		{"Garbage token", "Bearer not.a.jwt"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireAdmin_RejectsRegularUser(t *testing.T) {
	router := newGatedRouter()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", bearerFor(t, 42, domain.RoleUser))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	router := newGatedRouter()

	req := httptest.NewRequest("GET", "/admin/ping", nil)
	req.Header.Set("Authorization", bearerFor(t, 1, domain.RoleAdmin))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
