package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/histcore/histcore/internal/platform/auth"
	"github.com/histcore/histcore/pkg/pagination"
)

// Handler provides HTTP handlers for the patient directory.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the patient directory routes. Creation and
// listing are clinician-only; a patient may read their own entry.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinician := auth.RequireRole(auth.RoleClinician)
	any := auth.RequireRole(auth.RoleClinician, auth.RolePatient)

	api.POST("/patients", h.CreatePatient, clinician)
	api.GET("/patients", h.ListPatients, clinician)
	api.GET("/patients/:id", h.GetPatient, any)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	actor, _ := auth.ActorFromContext(c.Request().Context())
	if !auth.CanAccessPatient(actor, id.String()) {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only read their own entry")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
