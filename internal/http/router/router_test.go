package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apphttp "estate_crm_backend/internal/http"
	"estate_crm_backend/internal/http/middleware"
	"estate_crm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "router-secret"

type configStub struct{}

func (configStub) GetHTTPAddr() string        { return ":0" }
func (configStub) GetCORSAllowAll() bool      { return false }
func (configStub) GetCORSOrigins() []string   { return []string{"https://crm.example"} }
func (configStub) GetCORSAllowCreds() bool    { return true }
func (configStub) GetJWTAccessSecret() string { return testSecret }
func (configStub) GetJWTIssuer() string       { return "" }

type pingStub struct{ err error }

func (p pingStub) Ping(context.Context) error { return p.err }

type whoamiModule struct{}

func (whoamiModule) Name() string { return "whoami" }

func (whoamiModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/whoami", func(c *gin.Context) {
		p := middleware.MustGetPrincipal(c)
		if p == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": p.Role})
	})
}

func newEngine(health apphttp.HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  configStub{},
		Logger:  logger.Discard(),
		Health:  health,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("# metrics")) }),
		Modules: []apphttp.Module{whoamiModule{}},
	})
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthReflectsDatabase(t *testing.T) {
	if rec := serve(newEngine(pingStub{}), httptest.NewRequest(http.MethodGet, "/api/health", nil)); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec := serve(newEngine(pingStub{err: errors.New("down")}), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := serve(newEngine(nil), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "# metrics") {
		t.Fatalf("unexpected metrics response %d %q", rec.Code, rec.Body.String())
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	rec := serve(newEngine(nil), httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtectedRoutesReceivePrincipal(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":       uuid.NewString(),
		"tenant_id": uuid.NewString(),
		"role":      "tenant_admin",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := serve(newEngine(nil), req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "tenant_admin") {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}
