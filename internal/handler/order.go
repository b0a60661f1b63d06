package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tiendafresca/backend/internal/apperr"
	"github.com/tiendafresca/backend/internal/dto"
	"github.com/tiendafresca/backend/internal/middleware"
	"github.com/tiendafresca/backend/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.orders.Create(ctx, middleware.UserID(c), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	orderID, err := parseID(c.Param("id"))
	if err != nil {
		return err
	}

	order, err := h.orders.Get(ctx, middleware.UserID(c), middleware.IsAdmin(c), orderID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToOrderResponse(order))
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.orders.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		return err
	}

	resp := make([]*dto.OrderResponse, len(orders))
	for i := range orders {
		resp[i] = dto.ToOrderResponse(&orders[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.Validation, "invalid id")
	}
	return uint(id), nil
}
