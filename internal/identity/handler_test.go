package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/histcore/histcore/internal/platform/auth"
)

func newIdentityContext(e *echo.Echo, method, body string, actor auth.Actor) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req = req.WithContext(context.WithValue(req.Context(), auth.ActorKey, actor))
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_CreatePatient(t *testing.T) {
	h := NewHandler(NewService(newMockPatientRepo()))
	e := echo.New()

	body := `{"mrn":"MRN-001","first_name":"Ada","last_name":"Lark"}`
	c, rec := newIdentityContext(e, http.MethodPost, body, auth.Actor{Role: auth.RoleClinician})

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var got Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID == uuid.Nil || !got.Active {
		t.Errorf("unexpected created patient: %+v", got)
	}
}

func TestHandler_CreatePatient_Invalid(t *testing.T) {
	h := NewHandler(NewService(newMockPatientRepo()))
	e := echo.New()

	c, _ := newIdentityContext(e, http.MethodPost, `{"mrn":"MRN-001"}`, auth.Actor{Role: auth.RoleClinician})
	err := h.CreatePatient(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandler_GetPatient_SelfOnly(t *testing.T) {
	repo := newMockPatientRepo()
	h := NewHandler(NewService(repo))
	e := echo.New()

	p := Patient{MRN: "MRN-001", FirstName: "Ada", LastName: "Lark", Active: true}
	if err := repo.Create(context.Background(), &p); err != nil {
		t.Fatalf("seed: %v", err)
	}

	self := auth.Actor{Role: auth.RolePatient, PatientID: p.ID.String()}
	c, rec := newIdentityContext(e, http.MethodGet, "", self)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	if err := h.GetPatient(c); err != nil {
		t.Fatalf("self read must pass: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	other := auth.Actor{Role: auth.RolePatient, PatientID: uuid.NewString()}
	c, _ = newIdentityContext(e, http.MethodGet, "", other)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())
	err := h.GetPatient(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for another patient's entry, got %v", err)
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h := NewHandler(NewService(newMockPatientRepo()))
	e := echo.New()

	c, _ := newIdentityContext(e, http.MethodGet, "", auth.Actor{Role: auth.RoleClinician})
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())
	err := h.GetPatient(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	repo := newMockPatientRepo()
	h := NewHandler(NewService(repo))
	e := echo.New()

	for _, mrn := range []string{"MRN-001", "MRN-002", "MRN-003"} {
		p := Patient{MRN: mrn, FirstName: "A", LastName: "B"}
		if err := repo.Create(context.Background(), &p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	c, rec := newIdentityContext(e, http.MethodGet, "", auth.Actor{Role: auth.RoleClinician})
	if err := h.ListPatients(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("expected total 3, got %d", resp.Total)
	}
}
