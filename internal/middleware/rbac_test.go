package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/studyplanhq/studyplan-api/internal/models"
)

func rbacRouter(claims *models.JWTClaims, allowed ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
	})
	router.GET("/users/:id", RBAC(allowed...), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRBACAllowsListedRole(t *testing.T) {
	router := rbacRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, "ADMIN")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/u2", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACRejectsUnlistedRole(t *testing.T) {
	router := rbacRouter(&models.JWTClaims{UserID: "u1", Role: models.RoleStudent}, "ADMIN")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/u2", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRBACSelfMatchesPathParam(t *testing.T) {
	claims := &models.JWTClaims{UserID: "u1", Role: models.RoleStudent}
	router := rbacRouter(claims, "ADMIN", "SELF")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/u1", nil))
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("self access denied: %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/u2", nil))
	if recorder.Code != http.StatusForbidden {
		t.Fatalf("foreign access allowed: %d", recorder.Code)
	}
}

func TestRBACRequiresClaims(t *testing.T) {
	router := rbacRouter(nil, "ADMIN")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/users/u1", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
