package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vostok-promo/service-voucher/internal/application"
	"github.com/vostok-promo/service-voucher/internal/response"
)

// AuthHandler serves the admin login endpoint.
type AuthHandler struct {
	service *application.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(service *application.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", h.Login)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req application.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.service.Login(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
