package handlers

import (
	"net/http"

	request "homeservices/internal/adapter/http/dto/request"
	response "homeservices/internal/adapter/http/dto/response"
	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/domain/entities"
	"homeservices/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceHandler handles HTTP requests for customers' service requests.
type ServiceHandler struct {
	usecase usecase.IServiceUseCase
	logger  *zap.Logger
}

func NewServiceHandler(uc usecase.IServiceUseCase, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{usecase: uc, logger: logger}
}

func (h *ServiceHandler) CreateService(c *gin.Context) {
	var payload request.CreateServiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	requesterID, role := middleware.Requester(c)

	service, err := h.usecase.CreateService(c.Request.Context(), role, payload.ToInput(requesterID))
	if err != nil {
		h.logger.Info("[service][handler] create failed", zap.String("user_id", requesterID), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromService(service))
}

// ListServices returns the caller's services for customers, the open
// services matching their specialties for technicians and everything for admins.
func (h *ServiceHandler) ListServices(c *gin.Context) {
	requesterID, role := middleware.Requester(c)
	services, err := h.usecase.ListServices(c.Request.Context(), requesterID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServices(services))
}

func (h *ServiceHandler) GetService(c *gin.Context) {
	requesterID, role := middleware.Requester(c)
	details, err := h.usecase.GetService(c.Request.Context(), c.Param("id"), requesterID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServiceDetails(details))
}

func (h *ServiceHandler) ListAssignedServices(c *gin.Context) {
	technicianID, _ := middleware.Requester(c)
	services, err := h.usecase.ListAssignedServices(c.Request.Context(), technicianID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromServices(services))
}

func (h *ServiceHandler) UpdateServiceStatus(c *gin.Context) {
	var payload request.UpdateServiceStatusRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	serviceID := c.Param("id")
	requesterID, role := middleware.Requester(c)

	service, err := h.usecase.UpdateServiceStatus(c.Request.Context(), serviceID, requesterID, role, entities.ServiceStatus(payload.Status))
	if err != nil {
		h.logger.Info("[service][handler] status update failed",
			zap.String("service_id", serviceID), zap.String("status", payload.Status), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromService(service))
}

func (h *ServiceHandler) RateService(c *gin.Context) {
	var payload request.RateServiceRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	requesterID, _ := middleware.Requester(c)

	service, err := h.usecase.RateService(c.Request.Context(), c.Param("id"), requesterID, payload.Rating, payload.Review)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromService(service))
}
