package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/tiendafresca/backend/internal/apperr"
	"github.com/tiendafresca/backend/internal/handler"
	"github.com/tiendafresca/backend/internal/middleware"
)

type Server struct {
	echo *echo.Echo
}

func NewServer(
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	webhookHandler *handler.WebhookHandler,
	auth *middleware.AuthMiddleware,
	log *zap.SugaredLogger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = newHTTPErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(requestLogger(log))

	s := &Server{echo: e}
	s.setupRoutes(orderHandler, paymentHandler, webhookHandler, auth)
	return s
}

func (s *Server) setupRoutes(
	orderHandler *handler.OrderHandler,
	paymentHandler *handler.PaymentHandler,
	webhookHandler *handler.WebhookHandler,
	auth *middleware.AuthMiddleware,
) {
	s.echo.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// gateway-facing; authenticated by signature, not by bearer token
	s.echo.POST("/pagos/webhook", webhookHandler.Handle)

	api := s.echo.Group("/api", auth.Authenticate())

	api.POST("/orders", orderHandler.Create)
	api.GET("/orders", orderHandler.List)
	api.GET("/orders/:id", orderHandler.Get)

	api.POST("/payments", paymentHandler.Create)
	api.GET("/payments/:id", paymentHandler.Get)

	admin := auth.RequireAdmin()
	api.POST("/payments/:id/capture", paymentHandler.Capture, admin)
	api.POST("/payments/:id/cancel", paymentHandler.Cancel, admin)
	api.POST("/payments/:id/refunds", paymentHandler.Refund, admin)
	api.GET("/payments/:id/refunds", paymentHandler.ListRefunds, admin)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// newHTTPErrorHandler maps the error taxonomy onto HTTP statuses. Wrapped
// causes stay in the logs and never leak into responses.
func newHTTPErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			_ = c.JSON(he.Code, map[string]interface{}{"error": he.Message})
			return
		}

		var ae *apperr.Error
		if errors.As(err, &ae) {
			if ae.Kind == apperr.GatewayUnavailable {
				log.Warnw("gateway unavailable", "path", c.Path(), "error", err)
			}
			_ = c.JSON(ae.Kind.HTTPStatus(), map[string]string{
				"error": ae.Message,
				"kind":  ae.Kind.String(),
			})
			return
		}

		log.Errorw("unhandled error", "path", c.Path(), "error", err)
		_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func requestLogger(log *zap.SugaredLogger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Infow("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
			)
			return nil
		},
	})
}
