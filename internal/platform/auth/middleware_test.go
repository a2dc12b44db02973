package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func runMiddleware(mw echo.MiddlewareFunc, req *http.Request) (Actor, int, error) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Actor
	handler := mw(func(c echo.Context) error {
		got, _ = ActorFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return got, rec.Code, err
}

func TestJWTMiddleware_RoundTrip(t *testing.T) {
	actor := Actor{Subject: "pat@example.com", PatientID: "p-1", Role: RolePatient}
	token, err := SignToken(testSecret, actor, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	got, code, err := runMiddleware(JWTMiddleware(testSecret), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got != actor {
		t.Errorf("actor mismatch: got %+v want %+v", got, actor)
	}
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, _, err := runMiddleware(JWTMiddleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_WrongSecret(t *testing.T) {
	token, err := SignToken([]byte("another-secret-another-secret-ab"), Actor{Subject: "x", Role: RoleClinician}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	_, _, err = runMiddleware(JWTMiddleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_ExpiredToken(t *testing.T) {
	token, err := SignToken(testSecret, Actor{Subject: "x", Role: RoleClinician}, -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	_, _, err = runMiddleware(JWTMiddleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestJWTMiddleware_UnknownRole(t *testing.T) {
	token, err := SignToken(testSecret, Actor{Subject: "x", Role: Role("janitor")}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	_, _, err = runMiddleware(JWTMiddleware(testSecret), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestDevAuthMiddleware_DefaultsToClinician(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	got, code, err := runMiddleware(DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if got.Role != RoleClinician {
		t.Errorf("expected clinician default, got %s", got.Role)
	}
}

func TestDevAuthMiddleware_HeadersOverride(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-Role", "patient")
	req.Header.Set("X-Dev-Subject", "pat@example.com")
	req.Header.Set("X-Dev-Patient-ID", "p-7")

	got, _, err := runMiddleware(DevAuthMiddleware(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Actor{Subject: "pat@example.com", PatientID: "p-7", Role: RolePatient}
	if got != want {
		t.Errorf("actor mismatch: got %+v want %+v", got, want)
	}
}

func TestDevAuthMiddleware_RejectsUnknownRole(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Dev-Role", "janitor")

	_, _, err := runMiddleware(DevAuthMiddleware(), req)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
