package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(c echo.Context, roles ...string) {
	ctx := context.WithValue(c.Request().Context(), UserRolesKey, roles)
	c.SetRequest(c.Request().WithContext(ctx))
}

func runRBAC(t *testing.T, userRoles []string, required ...string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	contextWithRoles(c, userRoles...)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	if err := RequireRole(required...)(handler)(c); err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr.Code
		}
		t.Fatalf("unexpected error: %v", err)
	}
	return http.StatusOK
}

func TestRequireRole_Allows(t *testing.T) {
	if code := runRBAC(t, []string{"receptionist"}, "receptionist"); code != http.StatusOK {
		t.Errorf("expected 200, got %d", code)
	}
}

func TestRequireRole_AdminAlwaysPasses(t *testing.T) {
	if code := runRBAC(t, []string{"admin"}, "doctor"); code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", code)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	if code := runRBAC(t, []string{"doctor"}, "receptionist"); code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", code)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	if code := runRBAC(t, nil, "receptionist"); code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", code)
	}
}
