package bookings

import (
	"net/http"

	"dejair/internal/shared/middleware"
	"dejair/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

func (ctrl *Controller) CreateBooking(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.CreateBooking(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, "Failed to create booking", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Booking created successfully", booking, nil)
}

func (ctrl *Controller) GetBooking(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	booking, err := ctrl.service.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to get booking", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (ctrl *Controller) ListBookings(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	var query BookingListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	list, err := ctrl.service.ListBookings(c.Request.Context(), actor, query)
	if err != nil {
		response.RespondError(c, "Failed to list bookings", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}

func (ctrl *Controller) RequestNegotiation(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req NegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.RequestNegotiation(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.RespondError(c, "Failed to request negotiation", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Negotiation requested successfully", booking, nil)
}

func (ctrl *Controller) CounterOffer(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req CounterOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.CounterOffer(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.RespondError(c, "Failed to submit counter offer", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Counter offer submitted successfully", booking, nil)
}

func (ctrl *Controller) Decide(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	booking, err := ctrl.service.Decide(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.RespondError(c, "Failed to apply negotiation decision", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Negotiation decision applied successfully", booking, nil)
}

func (ctrl *Controller) GetNegotiationHistory(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	history, err := ctrl.service.GetNegotiationHistory(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to get negotiation history", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Negotiation history retrieved successfully", history, nil)
}

func (ctrl *Controller) GetStatus(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid booking ID", nil, err.Error())
		return
	}

	snapshot, err := ctrl.service.GetStatus(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to get booking status", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Booking status retrieved successfully", snapshot, nil)
}

func (ctrl *Controller) ListByKind(c *gin.Context) {
	list, err := ctrl.service.ListByKind(c.Request.Context(), c.Param("kind"))
	if err != nil {
		response.RespondError(c, "Failed to list bookings", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Bookings retrieved successfully", list, nil)
}
