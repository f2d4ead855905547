package fleet

import (
	"net/http"

	"dejair/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Controller struct {
	service  Service
	validate *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:  service,
		validate: validator.New(),
	}
}

func (ctrl *Controller) CreateHelicopter(c *gin.Context) {
	var req CreateHelicopterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.validate.Struct(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	helicopter, err := ctrl.service.Create(c.Request.Context(), req)
	if err != nil {
		response.RespondError(c, "Failed to create helicopter", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusCreated, "Helicopter created successfully", helicopter, nil)
}

func (ctrl *Controller) GetHelicopter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid helicopter ID", nil, err.Error())
		return
	}

	helicopter, err := ctrl.service.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, "Failed to get helicopter", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Helicopter retrieved successfully", helicopter, nil)
}

func (ctrl *Controller) ListHelicopters(c *gin.Context) {
	helicopters, err := ctrl.service.List(c.Request.Context())
	if err != nil {
		response.RespondError(c, "Failed to list helicopters", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Helicopters retrieved successfully", helicopters, nil)
}

func (ctrl *Controller) UpdateHelicopter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid helicopter ID", nil, err.Error())
		return
	}

	var req UpdateHelicopterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	if err := ctrl.validate.Struct(req); err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	helicopter, err := ctrl.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.RespondError(c, "Failed to update helicopter", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Helicopter updated successfully", helicopter, nil)
}

func (ctrl *Controller) DeleteHelicopter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "Invalid helicopter ID", nil, err.Error())
		return
	}

	if err := ctrl.service.Delete(c.Request.Context(), id); err != nil {
		response.RespondError(c, "Failed to delete helicopter", err)
		return
	}

	response.RespondJSON(c, "success", http.StatusOK, "Helicopter deleted successfully", nil, nil)
}
