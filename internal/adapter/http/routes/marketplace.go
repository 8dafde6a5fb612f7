package routes

import (
	"homeservices/internal/adapter/http/handlers"
	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/domain/entities"

	"github.com/gin-gonic/gin"
)

const (
	PathServices    = "/services"
	PathTechnicians = "/technicians"
	PathUsers       = "/users"
	PathQuotes      = "/quotes"
	PathPayments    = "/payments"
	PathEvents      = "/events"
	PathAdmin       = "/admin"
)

type apiHandlers struct {
	health   *handlers.HealthHandler
	services *handlers.ServiceHandler
	users    *handlers.UserHandler
	quotes   *handlers.QuoteHandler
	payments *handlers.PaymentHandler
	events   *handlers.EventsHandler
	stats    *handlers.StatsHandler
}

func addPingRoutes(rg *gin.RouterGroup, h *handlers.HealthHandler) {
	rg.GET("/ping", h.Ping)
	rg.GET("/health", h.Health)
}

// addWebhookRoutes mounts the gateway callbacks; they authenticate by signature, not by token.
func addWebhookRoutes(rg *gin.RouterGroup, h *handlers.PaymentHandler) {
	rg.POST(PathPayments+"/webhook", h.Webhook)
}

func addMarketplaceRoutes(rg *gin.RouterGroup, h apiHandlers) {
	customer := middleware.RequireRoles(entities.RoleCustomer)
	technician := middleware.RequireRoles(entities.RoleTechnician)
	admin := middleware.RequireRoles(entities.RoleAdmin)

	services := rg.Group(PathServices)
	{
		services.POST("", customer, h.services.CreateService)
		services.GET("", h.services.ListServices)
		services.GET("/:id", h.services.GetService)
		services.PATCH("/:id/status", h.services.UpdateServiceStatus)
		services.POST("/:id/rating", customer, h.services.RateService)
	}

	technicians := rg.Group(PathTechnicians)
	{
		technicians.GET("", h.users.ListTechnicians)
		technicians.GET("/me/services", technician, h.services.ListAssignedServices)
	}

	users := rg.Group(PathUsers)
	{
		users.POST("", admin, h.users.RegisterUser)
		users.GET("/me", h.users.GetProfile)
		users.PATCH("/me", h.users.UpdateProfile)
		users.PATCH("/me/technician-profile", technician, h.users.UpdateTechnicianProfile)
	}

	quotes := rg.Group(PathQuotes)
	{
		quotes.POST("", technician, h.quotes.CreateQuote)
		quotes.GET("", h.quotes.ListQuotes)
		quotes.GET("/:id", h.quotes.GetQuote)
		quotes.PATCH("/:id/accept", customer, h.quotes.AcceptQuote)
		quotes.PATCH("/:id/reject", customer, h.quotes.RejectQuote)
	}

	payments := rg.Group(PathPayments)
	{
		payments.POST("/intent", customer, h.payments.CreatePaymentIntent)
		payments.POST("/:id/confirm", customer, h.payments.ConfirmPayment)
		payments.GET("", h.payments.ListPayments)
		payments.GET("/:id", h.payments.GetPayment)
	}

	rg.GET(PathEvents+"/:channel", h.events.Stream)
	rg.GET(PathAdmin+"/stats", admin, h.stats.GetStats)
}
