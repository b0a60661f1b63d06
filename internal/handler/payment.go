package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tiendafresca/backend/internal/dto"
	"github.com/tiendafresca/backend/internal/middleware"
	"github.com/tiendafresca/backend/internal/service"
)

type PaymentHandler struct {
	payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

func (h *PaymentHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payment, err := h.payments.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToPaymentResponse(payment))
}

func (h *PaymentHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	payment, err := h.payments.Get(ctx, middleware.UserID(c), middleware.IsAdmin(c), paymentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

func (h *PaymentHandler) Capture(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req dto.CaptureRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payment, err := h.payments.Capture(ctx, paymentID, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

func (h *PaymentHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	payment, err := h.payments.Cancel(ctx, paymentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

func (h *PaymentHandler) Refund(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	var req dto.RefundRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	payment, err := h.payments.Refund(ctx, paymentID, req.Amount, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

func (h *PaymentHandler) ListRefunds(c echo.Context) error {
	ctx := c.Request().Context()

	paymentID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	refunds, err := h.payments.ListRefunds(ctx, paymentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, refunds)
}
