package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/api/handler"
	"hostel-mess/backend/internal/repository"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/jwt"
)

func setupRouter(t *testing.T) (http.Handler, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{MaxBodyBytes: 1 << 20},
		Auth:      config.AuthConfig{JWTSecret: "0123456789abcdef-test-secret", AccessTokenTTL: time.Minute, Issuer: "hostel-mess"},
		Billing:   config.BillingConfig{LeavePolicy: "NOT_CHARGED", BulkMaxRows: 10},
		RateLimit: config.RateLimitConfig{Requests: 10, Window: time.Minute},
	}
	logger := zap.NewNop()
	// 只验证路由与鉴权，请求不会到达仓储
	svc := service.NewService(cfg, &repository.Repository{}, nil, logger)
	mgr := jwt.NewManager(&cfg.Auth)
	return Setup(cfg, handler.NewHandler(svc), mgr, nil, logger), mgr
}

func TestSetup_Health(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestSetup_RequiresAuth(t *testing.T) {
	r, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/semesters", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestSetup_RoleGuards(t *testing.T) {
	r, mgr := setupRouter(t)
	token, _ := mgr.GenerateAccessToken("warden-1", jwt.RoleWarden, "Boys")

	// warden 不能记账、不能跑计费
	for _, target := range []struct{ method, path string }{
		{"POST", "/api/v1/fees/payments"},
		{"POST", "/api/v1/billing/semester"},
		{"PUT", "/api/v1/mando/budget"},
		{"GET", "/api/v1/audit-logs"},
	} {
		req := httptest.NewRequest(target.method, target.path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s %s: expected 403, got %d", target.method, target.path, w.Code)
		}
	}
}
