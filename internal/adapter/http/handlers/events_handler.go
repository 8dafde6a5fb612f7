package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"homeservices/internal/adapter/http/middleware"
	"homeservices/internal/domain/entities"
	"homeservices/internal/infrastructure/notify"
	"homeservices/internal/usecase"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const keepAliveInterval = 25 * time.Second

var errUnknownChannel = errors.New("unknown channel")

// EventsHandler streams notifier channels to browsers as server-sent events.
type EventsHandler struct {
	subscriber notify.Subscriber
	services   usecase.IServiceUseCase
	logger     *zap.Logger
	keepAlive  time.Duration
}

func NewEventsHandler(subscriber notify.Subscriber, services usecase.IServiceUseCase, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{subscriber: subscriber, services: services, logger: logger, keepAlive: keepAliveInterval}
}

// Stream subscribes the caller to one channel until the client disconnects.
//
// Channels: technicians (technicians only), technician-{id} and user-{id}
// (the owner only), service-{id} (anyone allowed to read the service).
// Admins may subscribe to any channel.
func (h *EventsHandler) Stream(c *gin.Context) {
	channel := c.Param("channel")
	requesterID, role := middleware.Requester(c)
	ctx := c.Request.Context()

	if err := h.authorize(ctx, channel, requesterID, role); err != nil {
		if errors.Is(err, errUnknownChannel) {
			writeAppError(c, errInvalidChannel)
			return
		}
		writeError(c, err)
		return
	}

	messages, cancel, err := h.subscriber.Subscribe(ctx, channel)
	if err != nil {
		h.logger.Error("[events][handler] subscribe failed", zap.String("channel", channel), zap.Error(err))
		writeError(c, err)
		return
	}
	defer cancel()

	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream;charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			c.SSEvent(msg.Event, msg.Payload)
			c.Writer.Flush()
		case <-ticker.C:
			if _, err := io.WriteString(c.Writer, ": keep-alive\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

func (h *EventsHandler) authorize(ctx context.Context, channel, requesterID string, role entities.Role) error {
	if role == entities.RoleAdmin {
		return nil
	}
	switch {
	case channel == entities.ChannelTechnicians:
		if role != entities.RoleTechnician {
			return usecase.ErrTechniciansOnly
		}
		return nil
	case strings.HasPrefix(channel, "technician-"):
		if role != entities.RoleTechnician || channel != entities.TechnicianChannel(requesterID) {
			return usecase.ErrAccessDenied
		}
		return nil
	case strings.HasPrefix(channel, "user-"):
		if channel != entities.UserChannel(requesterID) {
			return usecase.ErrAccessDenied
		}
		return nil
	case strings.HasPrefix(channel, "service-"):
		serviceID := strings.TrimPrefix(channel, "service-")
		_, err := h.services.GetService(ctx, serviceID, requesterID, role)
		return err
	}
	return errUnknownChannel
}
