package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/api/handler"
	"github.com/expresslane/courier-booking/internal/api/middleware"
	"github.com/expresslane/courier-booking/internal/core/domain"
	"github.com/expresslane/courier-booking/internal/core/ports"
)

const testSecret = "test-secret"

type fakePricing struct{}

func (fakePricing) Quote(_ context.Context, in ports.QuoteInput) (*domain.Quote, error) {
	if in.DestinationCode != "US" {
		return nil, domain.ErrInvalidDestination
	}
	return &domain.Quote{DestinationCode: "US", FinalPrice: 71.39, Currency: "USD"}, nil
}

type fakeMaintenance struct{ called bool }

func (f *fakeMaintenance) CleanupDuplicates(context.Context) (*ports.CleanupReport, error) {
	f.called = true
	return &ports.CleanupReport{}, nil
}

func token(t *testing.T, role, clientID string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role:     role,
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

var (
	routerOnce  sync.Once
	sharedRoute http.Handler
	sharedMaint = &fakeMaintenance{}
)

// newTestRouter builds the router once per test binary because the echo
// prometheus middleware registers its collectors globally.
func newTestRouter() (http.Handler, *fakeMaintenance) {
	routerOnce.Do(func() {
		sharedRoute = buildTestRouter(sharedMaint)
	})
	sharedMaint.called = false
	return sharedRoute, sharedMaint
}

func buildTestRouter(maint *fakeMaintenance) http.Handler {
	return NewRouter(Dependencies{
		Pricing:     fakePricing{},
		Maintenance: maint,
		Health: map[string]handler.Pinger{
			"mongodb": handler.PingFunc(func(context.Context) error { return nil }),
		},
		JWTSecret: testSecret,
		Location:  time.UTC,
		Logger:    zerolog.Nop(),
	})
}

func do(h http.Handler, method, path, body, bearer string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthIsPublic(t *testing.T) {
	r, _ := newTestRouter()
	if rec := do(r, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health = %d", rec.Code)
	}
	if rec := do(r, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("/health/ready = %d", rec.Code)
	}
}

func TestRouter_MetricsExposed(t *testing.T) {
	r, _ := newTestRouter()
	rec := do(r, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d", rec.Code)
	}
}

func TestRouter_RequiresToken(t *testing.T) {
	r, _ := newTestRouter()
	rec := do(r, http.MethodPost, "/v1/quotes", `{"destination_code":"US"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouter_QuoteEndToEnd(t *testing.T) {
	r, _ := newTestRouter()
	body := `{"destination_code":"US","length_cm":30,"width_cm":20,"height_cm":10,"actual_weight_kg":6}`

	rec := do(r, http.MethodPost, "/v1/quotes", body, token(t, domain.RoleClient, "branch-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(r, http.MethodPost, "/v1/quotes", strings.Replace(body, "US", "ZZ", 1), token(t, domain.RoleClient, "branch-1"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Reason != domain.ReasonInvalidDestination {
		t.Fatalf("reason = %q", resp.Reason)
	}
}

func TestRouter_AdminRoutesForbidClients(t *testing.T) {
	r, maint := newTestRouter()

	rec := do(r, http.MethodPost, "/v1/admin/maintenance/duplicates", "", token(t, domain.RoleClient, "branch-1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if maint.called {
		t.Fatal("maintenance ran for a client")
	}

	rec = do(r, http.MethodPost, "/v1/admin/maintenance/duplicates", "", token(t, domain.RoleAdmin, ""))
	if rec.Code != http.StatusOK || !maint.called {
		t.Fatalf("expected admin to run cleanup, got %d", rec.Code)
	}
}

func TestRouter_UnknownRoleForbidden(t *testing.T) {
	r, _ := newTestRouter()
	rec := do(r, http.MethodPost, "/v1/quotes", `{}`, token(t, "courier", ""))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRouter_BulkStatusIsAdminOnly(t *testing.T) {
	r, _ := newTestRouter()
	body := `{"tracking_ids":["EX-SEP-05-001"],"action":"cancel","source":"ops"}`
	rec := do(r, http.MethodPost, "/v1/admin/shipments/status", body, token(t, domain.RoleClient, "branch-1"))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
