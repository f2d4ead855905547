package payments

import (
	"net/http"

	"dejair/internal/mpesa"
	"dejair/internal/shared/middleware"
	"dejair/internal/shared/utils/response"
	"dejair/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Pay runs the blocking initiate-and-confirm flow. The response carries
// the terminal payment outcome.
func (ctrl *Controller) Pay(c *gin.Context) {
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

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	payment, err := ctrl.service.Pay(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.RespondError(c, "Payment failed", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment processed", payment, nil)
}

// Initiate starts a payment and returns immediately; the client polls the
// booking status endpoint or waits for the gateway callback.
func (ctrl *Controller) Initiate(c *gin.Context) {
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

	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	payment, err := ctrl.service.Initiate(c.Request.Context(), actor, bookingID, req)
	if err != nil {
		response.RespondError(c, "Failed to initiate payment", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusAccepted, "Payment initiated", payment, nil)
}

// Confirm drives the verification loop for a previously initiated payment,
// keyed off the checkout request id returned by Initiate.
func (ctrl *Controller) Confirm(c *gin.Context) {
	if _, ok := middleware.ActorFromContext(c); !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "Authentication required", nil, nil)
		return
	}

	checkoutRequestID := c.Param("checkoutRequestId")
	if checkoutRequestID == "" {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Missing checkout request ID", nil, nil)
		return
	}

	payment, err := ctrl.service.Confirm(c.Request.Context(), checkoutRequestID)
	if err != nil {
		response.RespondError(c, "Failed to confirm payment", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payment confirmed", payment, nil)
}

// Callback receives Daraja's asynchronous confirmation. It always answers
// 200 so the gateway does not retry endlessly against transient errors.
func (ctrl *Controller) Callback(c *gin.Context) {
	var payload mpesa.CallbackPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid callback payload", nil, err.Error())
		return
	}

	if err := ctrl.service.HandleCallback(c.Request.Context(), payload); err != nil {
		logger.GetDefault().ErrorWithContext(c.Request.Context(), "failed to apply payment callback", err, map[string]interface{}{
			"checkout_request_id": payload.Body.StkCallback.CheckoutRequestID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"ResultCode": 0, "ResultDesc": "Accepted"})
}

func (ctrl *Controller) ListForBooking(c *gin.Context) {
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

	list, err := ctrl.service.ListForBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		response.RespondError(c, "Failed to list payments", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payments retrieved successfully", list, nil)
}

func (ctrl *Controller) ListAll(c *gin.Context) {
	list, err := ctrl.service.ListAll(c.Request.Context())
	if err != nil {
		response.RespondError(c, "Failed to list payments", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Payments retrieved successfully", list, nil)
}
