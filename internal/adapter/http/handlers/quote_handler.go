package handlers

import (
	"net/http"

	request "homeservices/internal/adapter/http/dto/request"
	response "homeservices/internal/adapter/http/dto/response"
	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// QuoteHandler handles HTTP requests for technician quotes.
type QuoteHandler struct {
	usecase usecase.IQuoteUseCase
	logger  *zap.Logger
}

func NewQuoteHandler(uc usecase.IQuoteUseCase, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{usecase: uc, logger: logger}
}

// CreateQuote submits a quote for a service on behalf of the calling technician.
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var payload request.CreateQuoteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		writeAppError(c, errInvalidPayload)
		return
	}
	technicianID, _ := middleware.Requester(c)

	quote, err := h.usecase.CreateQuote(c.Request.Context(), payload.ToInput(technicianID))
	if err != nil {
		h.logger.Info("[quote][handler] create failed", zap.String("service_id", payload.ServiceID), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.FromQuote(quote))
}

func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	requesterID, role := middleware.Requester(c)
	quotes, err := h.usecase.ListQuotes(c.Request.Context(), requesterID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromQuotes(quotes))
}

func (h *QuoteHandler) GetQuote(c *gin.Context) {
	requesterID, role := middleware.Requester(c)
	quote, err := h.usecase.GetQuote(c.Request.Context(), c.Param("id"), requesterID, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromQuote(quote))
}

// AcceptQuote accepts a quote for the caller's service. Every other pending
// quote on the service is rejected in the same step.
func (h *QuoteHandler) AcceptQuote(c *gin.Context) {
	quoteID := c.Param("id")
	requesterID, _ := middleware.Requester(c)

	quote, service, err := h.usecase.AcceptQuote(c.Request.Context(), quoteID, requesterID)
	if err != nil {
		h.logger.Info("[quote][handler] accept failed", zap.String("quote_id", quoteID), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.AcceptQuoteResponse{
		Quote:   response.FromQuote(quote),
		Service: response.FromService(service),
	})
}

func (h *QuoteHandler) RejectQuote(c *gin.Context) {
	quoteID := c.Param("id")
	requesterID, _ := middleware.Requester(c)

	quote, err := h.usecase.RejectQuote(c.Request.Context(), quoteID, requesterID)
	if err != nil {
		h.logger.Info("[quote][handler] reject failed", zap.String("quote_id", quoteID), zap.Error(err))
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.FromQuote(quote))
}
