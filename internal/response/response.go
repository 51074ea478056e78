package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vostok-promo/service-voucher/internal/domain"
)

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Paginated writes a 200 response with a standard pagination envelope.
func Paginated(c *gin.Context, data any, total int64, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// BadRequest writes a 400 with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "BAD_REQUEST", "message": message})
}

// Unauthorized writes a 401 with the given message.
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "UNAUTHORIZED", "message": message})
}

// Error maps an error to an HTTP response. Domain errors carry their reason
// code to the client; anything else is an opaque 500.
func Error(c *gin.Context, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		c.JSON(statusFor(derr.Reason), gin.H{
			"error":   string(derr.Reason),
			"message": derr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "INTERNAL", "message": "internal server error"})
}

func statusFor(reason domain.Reason) int {
	switch reason {
	case domain.ReasonCampaignNotFound, domain.ReasonBrandNotFound,
		domain.ReasonVoucherNotFound, domain.ReasonUserNotFound:
		return http.StatusNotFound
	case domain.ReasonConflict:
		return http.StatusConflict
	case domain.ReasonUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}
