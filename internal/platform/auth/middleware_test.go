package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, claims *Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (int, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	if err := mw(handler)(c); err != nil {
		if httpErr, ok := err.(*echo.HTTPError); ok {
			return httpErr.Code, c
		}
		t.Fatalf("unexpected error type: %v", err)
	}
	return http.StatusOK, c
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	raw := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles: []string{"receptionist"},
	})

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	code, c := runAuth(t, mw, "Bearer "+raw)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}

	ctx := c.Request().Context()
	if UserIDFromContext(ctx) != "user-1" {
		t.Errorf("expected subject user-1, got %s", UserIDFromContext(ctx))
	}
	roles := RolesFromContext(ctx)
	if len(roles) != 1 || roles[0] != "receptionist" {
		t.Errorf("unexpected roles: %v", roles)
	}
}

func TestJWTMiddleware_MissingToken(t *testing.T) {
	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	code, _ := runAuth(t, mw, "")
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestJWTMiddleware_BadSignature(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, _ := token.SignedString([]byte("wrong-key"))

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	code, _ := runAuth(t, mw, "Bearer "+raw)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	raw := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey})
	code, _ := runAuth(t, mw, "Bearer "+raw)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	raw := signToken(t, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "other",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	mw := JWTMiddleware(JWTConfig{SigningKey: testKey, Issuer: "agenda"})
	code, _ := runAuth(t, mw, "Bearer "+raw)
	if code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", code)
	}
}

func TestDevAuthMiddleware_GrantsAdmin(t *testing.T) {
	code, c := runAuth(t, DevAuthMiddleware(), "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	roles := RolesFromContext(c.Request().Context())
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("expected admin role, got %v", roles)
	}
}
