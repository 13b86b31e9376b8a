package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"estate_crm_backend/internal/access"
	"estate_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestPrincipalFromIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID, tenantID := uuid.New(), uuid.New()

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Set(httpkit.ContextTenantIDKey, tenantID)
		c.Set(httpkit.ContextRoleKey, "agent")
	})
	engine.Use(Principal())

	var got, fromCtx *access.Principal
	engine.GET("/", func(c *gin.Context) {
		got = MustGetPrincipal(c)
		fromCtx = access.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got == nil || got.ID != userID || got.TenantID != tenantID || got.Role != access.RoleAgent {
		t.Fatalf("unexpected principal %+v", got)
	}
	if fromCtx != got {
		t.Fatal("expected principal on request context")
	}
}

func TestPrincipalWithoutIdentityIsUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(Principal())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPrincipalRejectsSystemRoleFromToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, uuid.New())
		c.Set(httpkit.ContextRoleKey, string(access.RoleSystem))
	})
	engine.Use(Principal())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
