package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequireIdentityInjectsCaller(t *testing.T) {
	userID := uuid.New()

	var gotID uuid.UUID
	var gotRole string
	handler := RequireIdentity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = UserIDFromContext(r.Context())
		gotRole = RoleFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-User-Id", userID.String())
	req.Header.Set("X-User-Role", RoleSeller)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 but got %d", w.Code)
	}
	if gotID != userID {
		t.Fatalf("expected user id %s but got %s", userID, gotID)
	}
	if gotRole != RoleSeller {
		t.Fatalf("expected seller role but got %q", gotRole)
	}
}

func TestRequireIdentityRejectsMissingHeader(t *testing.T) {
	handler := RequireIdentity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without identity")
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
}

func TestRequireIdentityRejectsMalformedID(t *testing.T) {
	handler := RequireIdentity(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run with a bad id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("X-User-Id", "not-a-uuid")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 but got %d", w.Code)
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(nil, RoleSeller)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/sellers/me", nil)
	req = req.WithContext(WithRole(req.Context(), RoleUser))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role but got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sellers/me", nil)
	req = req.WithContext(WithRole(req.Context(), RoleSeller))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching role but got %d", w.Code)
	}
}
