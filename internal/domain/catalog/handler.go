package catalog

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/klinik/klinik/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdministrasi, auth.RoleDokter))
	read.GET("/rooms", h.ListRooms)
	read.GET("/rooms/:id/doctors", h.ListDoctorsByRoom)
	read.GET("/doctors", h.ListDoctors)
	read.GET("/payment-methods", h.ListPaymentMethods)
	read.GET("/guarantors", h.ListGuarantors)
}

func (h *Handler) ListRooms(c echo.Context) error {
	rooms, err := h.svc.ListRooms(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, rooms)
}

func (h *Handler) ListDoctorsByRoom(c echo.Context) error {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid room id")
	}
	doctors, err := h.svc.ListDoctorsByRoom(c.Request().Context(), roomID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) ListPaymentMethods(c echo.Context) error {
	methods, err := h.svc.ListPaymentMethods(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, methods)
}

func (h *Handler) ListGuarantors(c echo.Context) error {
	guarantors, err := h.svc.ListGuarantors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, guarantors)
}
