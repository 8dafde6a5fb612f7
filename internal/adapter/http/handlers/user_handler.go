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

type UserHandler struct {
	usecase usecase.IUserUseCase
	logger  *zap.Logger
}

func NewUserHandler(uc usecase.IUserUseCase, logger *zap.Logger) *UserHandler {
	return &UserHandler{usecase: uc, logger: logger}
}

// RegisterUser creates an account. Mounted behind the admin role; sign-up is
// delegated to the identity provider that issues the bearer tokens.
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var payload request.RegisterUserRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	user, err := h.usecase.RegisterUser(c.Request.Context(), payload.ToInput())
	if err != nil {
		h.logger.Info("[user][handler] register failed", zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromUser(user))
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, _ := middleware.Requester(c)
	user, err := h.usecase.GetProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var payload request.UpdateProfileRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	userID, _ := middleware.Requester(c)
	user, err := h.usecase.UpdateProfile(c.Request.Context(), userID, payload.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

func (h *UserHandler) UpdateTechnicianProfile(c *gin.Context) {
	var payload request.UpdateTechnicianProfileRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	userID, _ := middleware.Requester(c)
	user, err := h.usecase.UpdateTechnicianProfile(c.Request.Context(), userID, payload.ToInput())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromUser(user))
}

// ListTechnicians lists active technicians, optionally filtered by ?category=.
func (h *UserHandler) ListTechnicians(c *gin.Context) {
	users, err := h.usecase.ListTechnicians(c.Request.Context(), entities.Category(c.Query("category")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromUsers(users))
}
