package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/caseflowhq/caseflow/internal/clients"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

type stubClientRepo struct{}

func (stubClientRepo) Create(_ context.Context, req *clients.CreateClientRequest) (*clients.Client, error) {
	return &clients.Client{ID: "C1", Name: req.Name}, nil
}
func (stubClientRepo) Get(context.Context, string) (*clients.Client, error) {
	return &clients.Client{ID: "C1", Name: "Jane"}, nil
}
func (stubClientRepo) List(context.Context) ([]*clients.Client, error) { return nil, nil }
func (stubClientRepo) Update(context.Context, string, *clients.UpdateClientRequest) (*clients.Client, error) {
	return &clients.Client{ID: "C1"}, nil
}
func (stubClientRepo) Delete(context.Context, string) error { return nil }

func newTestRouter(secret string) http.Handler {
	return New(&Config{
		Logger:          logging.Default(),
		ClientsHandler:  clients.NewHandler(stubClientRepo{}, logging.Default()),
		StaffAuthSecret: secret,
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestUnregisteredRouteIs404(t *testing.T) {
	r := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unwired handler, got %d", rr.Code)
	}
}

func TestStaffRoutesOpenWithoutSecret(t *testing.T) {
	r := newTestRouter("")

	req := httptest.NewRequest(http.MethodGet, "/clients/C1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestStaffRoutesRequireTokenWithSecret(t *testing.T) {
	r := newTestRouter("secret")

	req := httptest.NewRequest(http.MethodGet, "/clients/C1", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "U1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/clients/C1", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}

func TestRateLimitEngagesWhenConfigured(t *testing.T) {
	r := New(&Config{
		Logger:             logging.Default(),
		ClientsHandler:     clients.NewHandler(stubClientRepo{}, logging.Default()),
		RateLimitPerSecond: 1,
		RateLimitBurst:     1,
	})

	req := httptest.NewRequest(http.MethodGet, "/clients/C1", nil)
	req.Header.Set("X-Real-Ip", "10.0.0.1")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the burst is spent, got %d", rr.Code)
	}
}

func TestHealthStaysPublicWithSecret(t *testing.T) {
	r := newTestRouter("secret")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected public health endpoint, got %d", rr.Code)
	}
}
