package visit

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/klinik/klinik/internal/platform/auth"
	"github.com/klinik/klinik/pkg/pagination"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdministrasi, auth.RoleDokter))
	read.GET("/registrations", h.List)
	read.GET("/registrations/:id", h.Get)
	read.GET("/rooms/:id/quota", h.RemainingQuota)

	write := api.Group("", auth.RequireRole(auth.RoleAdministrasi))
	write.POST("/visits", h.Create)
	write.DELETE("/registrations/:id", h.Delete)

	// Doctors progress the queue too.
	status := api.Group("", auth.RequireRole(auth.RoleAdministrasi, auth.RoleDokter))
	status.PATCH("/registrations/:id/status", h.UpdateStatus)
}

func (h *Handler) Create(c echo.Context) error {
	var nv NewVisit
	if err := c.Bind(&nv); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.Create(c.Request().Context(), &nv)
	if err != nil {
		var fe FieldErrors
		if errors.As(err, &fe) {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"field_errors": fe})
		}
		if errors.Is(err, ErrQuotaExhausted) {
			return echo.NewHTTPError(http.StatusConflict, MsgQuotaExhausted)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "pendaftaran tidak ditemukan")
	}
	return c.JSON(http.StatusOK, v)
}

// List returns registrations newest first, optionally bounded by
// ?start=YYYY-MM-DD&end=YYYY-MM-DD on the visit date.
func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	startStr, endStr := c.QueryParam("start"), c.QueryParam("end")

	var (
		items []*Registration
		total int
		err   error
	)
	if startStr != "" || endStr != "" {
		start, end, perr := parseDateRange(startStr, endStr)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, perr.Error())
		}
		items, total, err = h.svc.ListRegistrationsByDateRange(c.Request().Context(), start, end, pg.Limit, pg.Offset)
	} else {
		items, total, err = h.svc.ListRegistrations(c.Request().Context(), pg.Limit, pg.Offset)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func parseDateRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid start date, want YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid end date, want YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end date precedes start date")
	}
	return start, end, nil
}

func (h *Handler) RemainingQuota(c echo.Context) error {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}
	tanggal := time.Now()
	if d := c.QueryParam("date"); d != "" {
		tanggal, err = time.Parse(dateLayout, d)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		}
	}
	q, err := h.svc.RemainingQuota(c.Request().Context(), roomID, tanggal)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		if errors.Is(err, ErrInvalidTransition) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		if errors.Is(err, ErrFetchFailed) {
			return echo.NewHTTPError(http.StatusNotFound, "pendaftaran tidak ditemukan")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
