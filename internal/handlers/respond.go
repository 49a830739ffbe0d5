package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"stock-ledger/internal/inventory"
	"stock-ledger/internal/middleware"
	"stock-ledger/internal/notify"
	"stock-ledger/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail maps a service error onto a status code and the standard error body.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()

	switch {
	case errors.Is(err, services.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, inventory.ErrAllocationExhausted):
		msg = "Failed to generate unique SKU"
	}

	if status >= 500 {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err))
	}
	_ = c.Error(err)
	abortWith(c, status, msg)
}

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "request_id": middleware.RequestIDFrom(c)})
}

func badRequest(c *gin.Context, msg string) {
	abortWith(c, http.StatusBadRequest, msg)
}

// idParam reads a positive integer path parameter.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// published tells stream subscribers a write has committed.
func published(topic notify.Topic, id uint) {
	notify.Hub.Publish(notify.Event{Topic: topic, ID: id})
}
