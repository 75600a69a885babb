package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"deliveryhub/internal/core/application/ingestion"
	"deliveryhub/internal/core/application/usecases/commands"
	"deliveryhub/internal/core/application/usecases/queries"
	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

const maxWebhookBody = 1 << 20

// Use case contracts the server depends on. The command and query handlers satisfy them.
type (
	RestaurantConfigurer interface {
		Handle(ctx context.Context, command commands.ConfigureRestaurantCommand) error
	}

	DeliveryCreator interface {
		Handle(ctx context.Context, command commands.CreateDeliveryCommand) (commands.CreateDeliveryResult, error)
	}

	ProviderAssigner interface {
		Handle(ctx context.Context, command commands.AssignProviderCommand) error
	}

	DeliveryDispatcher interface {
		Handle(ctx context.Context, command commands.DispatchDeliveryCommand) (commands.DispatchOutcome, error)
	}

	DeliveryCanceller interface {
		Handle(ctx context.Context, command commands.CancelDeliveryCommand) error
	}

	CourierLocationUpdater interface {
		Handle(ctx context.Context, command commands.UpdateCourierLocationCommand) (bool, error)
	}

	RefundAttacher interface {
		Handle(ctx context.Context, command commands.AttachRefundCommand) error
	}

	DeliveryFinder interface {
		Handle(ctx context.Context, query queries.GetDeliveryQuery) (queries.DeliveryView, error)
	}

	ActiveDeliveriesLister interface {
		Handle(ctx context.Context, query queries.GetActiveDeliveriesQuery) ([]queries.DeliveryView, error)
	}

	WebhookIngestor interface {
		Ingest(ctx context.Context, provider delivery.Provider, payload []byte) (ingestion.Outcome, error)
	}
)

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	ConfigureRestaurant   RestaurantConfigurer
	CreateDelivery        DeliveryCreator
	AssignProvider        ProviderAssigner
	DispatchDelivery      DeliveryDispatcher
	CancelDelivery        DeliveryCanceller
	UpdateCourierLocation CourierLocationUpdater
	AttachRefund          RefundAttacher
	GetDelivery           DeliveryFinder
	GetActiveDeliveries   ActiveDeliveriesLister
	Webhooks              WebhookIngestor
}

// Server translates HTTP requests into commands and queries.
type Server struct {
	handlers Handlers
	logger   *slog.Logger
}

func NewServer(handlers Handlers, logger *slog.Logger) *Server {
	return &Server{
		handlers: handlers,
		logger:   logger.With("component", "http_server"),
	}
}

// Register mounts every route on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	api.PUT("/restaurants/:id/settings", s.ConfigureRestaurant)
	api.POST("/deliveries", s.CreateDelivery)
	api.GET("/deliveries", s.ListDeliveries)
	api.GET("/deliveries/:id", s.GetDelivery)
	api.GET("/orders/:orderId/delivery", s.GetDeliveryByOrder)
	api.POST("/deliveries/:id/provider", s.AssignProvider)
	api.POST("/deliveries/:id/dispatch", s.DispatchDelivery)
	api.POST("/deliveries/:id/cancel", s.CancelDelivery)
	api.POST("/deliveries/:id/courier/location", s.UpdateCourierLocation)
	api.POST("/deliveries/:id/refund", s.AttachRefund)
	api.POST("/webhooks/:provider", s.ReceiveWebhook)
}

func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// ConfigureRestaurant handles PUT /api/v1/restaurants/:id/settings.
func (s *Server) ConfigureRestaurant(ctx echo.Context) error {
	var req RestaurantSettingsRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := req.toCommand(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	if err = s.handlers.ConfigureRestaurant.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CreateDelivery handles POST /api/v1/deliveries.
func (s *Server) CreateDelivery(ctx echo.Context) error {
	var req CreateDeliveryRequest
	if err := ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := req.toCommand(kernel.NewUUID())
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.handlers.CreateDelivery.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	resp := CreateDeliveryResponse{
		ID:       result.DeliveryID.String(),
		Provider: string(result.Provider),
	}
	if q := result.Quote; q != nil {
		fee := toMoneyResponse(q.Fee)
		resp.QuotedFee = &fee
		resp.DropOffEta = q.DropoffEta
	}

	return ctx.JSON(http.StatusCreated, resp)
}

// GetDelivery handles GET /api/v1/deliveries/:id.
func (s *Server) GetDelivery(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetDeliveryQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	return s.findDelivery(ctx, query)
}

// GetDeliveryByOrder handles GET /api/v1/orders/:orderId/delivery.
func (s *Server) GetDeliveryByOrder(ctx echo.Context) error {
	query, err := queries.NewGetDeliveryByOrderQuery(ctx.Param("orderId"))
	if err != nil {
		return s.fail(ctx, err)
	}

	return s.findDelivery(ctx, query)
}

func (s *Server) findDelivery(ctx echo.Context, query queries.GetDeliveryQuery) error {
	view, err := s.handlers.GetDelivery.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toDeliveryResponse(view))
}

// ListDeliveries handles GET /api/v1/deliveries?active=true[&restaurantId=...].
// Only active deliveries can be listed.
func (s *Server) ListDeliveries(ctx echo.Context) error {
	if active := ctx.QueryParam("active"); active != "" && active != "true" {
		return badRequest(ctx, "Only active deliveries can be listed")
	}

	query := queries.NewGetActiveDeliveriesQuery(ctx.QueryParam("restaurantId"))

	views, err := s.handlers.GetActiveDeliveries.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]DeliveryResponse, len(views))
	for i, view := range views {
		response[i] = toDeliveryResponse(view)
	}

	return ctx.JSON(http.StatusOK, response)
}

// AssignProvider handles POST /api/v1/deliveries/:id/provider.
func (s *Server) AssignProvider(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	var req AssignProviderRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	provider, err := delivery.ParseProvider(req.Provider)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewAssignProviderCommand(id, provider, req.ProviderIdentifier)
	if err != nil {
		return s.fail(ctx, err)
	}

	if err = s.handlers.AssignProvider.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// DispatchDelivery handles POST /api/v1/deliveries/:id/dispatch.
func (s *Server) DispatchDelivery(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewDispatchDeliveryCommand(id)
	if err != nil {
		return s.fail(ctx, err)
	}

	outcome, err := s.handlers.DispatchDelivery.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, DispatchResponse{Outcome: outcome.String()})
}

// CancelDelivery handles POST /api/v1/deliveries/:id/cancel.
func (s *Server) CancelDelivery(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	var req CancelDeliveryRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewCancelDeliveryCommand(id, req.Reason)
	if err != nil {
		return s.fail(ctx, err)
	}

	if err = s.handlers.CancelDelivery.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// UpdateCourierLocation handles POST /api/v1/deliveries/:id/courier/location.
func (s *Server) UpdateCourierLocation(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	var req CourierLocationRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	point, err := kernel.NewGeoPoint(req.Latitude, req.Longitude)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewUpdateCourierLocationCommand(id, point, req.RecordedAt)
	if err != nil {
		return s.fail(ctx, err)
	}

	applied, err := s.handlers.UpdateCourierLocation.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, CourierLocationResponse{Applied: applied})
}

// AttachRefund handles POST /api/v1/deliveries/:id/refund.
func (s *Server) AttachRefund(ctx echo.Context) error {
	id, err := kernel.UUIDFromString(ctx.Param("id"))
	if err != nil {
		return s.fail(ctx, err)
	}

	var req RefundRequest
	if err = ctx.Bind(&req); err != nil {
		return badRequest(ctx, "Invalid request body")
	}

	amount, err := req.Amount.toMoney()
	if err != nil {
		return s.fail(ctx, err)
	}

	refund, err := delivery.NewRefund(amount, req.Reason, time.Time{})
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewAttachRefundCommand(id, refund)
	if err != nil {
		return s.fail(ctx, err)
	}

	if err = s.handlers.AttachRefund.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ReceiveWebhook handles POST /api/v1/webhooks/:provider.
//
// Anything the service managed to read is acknowledged with 202, including payloads it
// could not recognize or events it dropped, so providers do not retry them. A 500 asks
// the provider to redeliver after a storage failure.
func (s *Server) ReceiveWebhook(ctx echo.Context) error {
	provider, err := delivery.ParseProvider(ctx.Param("provider"))
	if err != nil {
		return ctx.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "Unknown provider"})
	}

	payload, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxWebhookBody))
	if err != nil || len(payload) == 0 {
		return badRequest(ctx, "Unreadable webhook body")
	}

	outcome, err := s.handlers.Webhooks.Ingest(ctx.Request().Context(), provider, payload)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return ctx.JSON(http.StatusNotFound, Error{Code: http.StatusNotFound, Message: "Unknown provider"})
		}
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusAccepted, WebhookResponse{Outcome: outcome.String()})
}
