package history

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/histcore/histcore/internal/platform/auth"
)

// Handler exposes the history engine over HTTP. It owns only the envelope
// parsing and the mapping of engine outcomes onto status codes.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the history routes. Both roles may reach them;
// the engine decides what a non-clinician is allowed to change, the handler
// only pins patients to their own records.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole(auth.RoleClinician, auth.RolePatient)

	g := api.Group("/patients/:id/history", role)
	g.GET("", h.ListRecords)
	g.GET("/:category", h.GetRecord)
	g.PUT("/:category", h.SubmitUpdate)
}

// updateEnvelope is the request body for SubmitUpdate. Subject and category
// ride on the path, the actor on the token.
type updateEnvelope struct {
	Fields map[string]Field `json:"fields"`
}

func (h *Handler) SubmitUpdate(c echo.Context) error {
	patientID, actor, err := h.resolvePatient(c)
	if err != nil {
		return err
	}
	var env updateEnvelope
	if err := c.Bind(&env); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rec, err := h.svc.Submit(c.Request().Context(), UpdateRequest{
		PatientID: patientID,
		Category:  c.Param("category"),
		Actor:     actor,
		Fields:    env.Fields,
	})
	if err != nil {
		return mapEngineError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	patientID, _, err := h.resolvePatient(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Get(c.Request().Context(), patientID, c.Param("category"))
	if err != nil {
		return mapEngineError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	patientID, _, err := h.resolvePatient(c)
	if err != nil {
		return err
	}
	items, err := h.svc.List(c.Request().Context(), patientID)
	if err != nil {
		return mapEngineError(err)
	}
	if items == nil {
		items = []*Record{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) resolvePatient(c echo.Context) (uuid.UUID, auth.Actor, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, auth.Actor{}, echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, auth.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "no authenticated actor")
	}
	if !auth.CanAccessPatient(actor, id.String()) {
		return uuid.Nil, auth.Actor{}, echo.NewHTTPError(http.StatusForbidden, "patients may only access their own history")
	}
	return id, actor, nil
}

// mapEngineError translates the engine's error taxonomy onto transport
// status codes.
func mapEngineError(err error) error {
	var input *InputError
	if errors.As(err, &input) {
		return echo.NewHTTPError(http.StatusBadRequest, input.Msg)
	}
	var authz *AuthorizationError
	if errors.As(err, &authz) {
		return echo.NewHTTPError(http.StatusUnauthorized, authz.Msg)
	}
	var destructive *DestructiveUpdateError
	if errors.As(err, &destructive) {
		return echo.NewHTTPError(http.StatusForbidden, destructive.Error())
	}
	var unknown *UnknownSubjectError
	if errors.As(err, &unknown) {
		return echo.NewHTTPError(http.StatusNotFound, unknown.Error())
	}
	if errors.Is(err, ErrNoRecord) {
		return echo.NewHTTPError(http.StatusNotFound, "no history recorded for this category")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
