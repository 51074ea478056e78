package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/vostok-promo/service-voucher/internal/application"
	"github.com/vostok-promo/service-voucher/internal/response"
)

// BotHandler serves the bot front-end surface: code activation and the user
// profile stats the bot renders. The conversational flow itself lives in the
// bot, not here.
type BotHandler struct {
	vouchers *application.VoucherService
	users    *application.UserService
}

// NewBotHandler creates a BotHandler.
func NewBotHandler(vouchers *application.VoucherService, users *application.UserService) *BotHandler {
	return &BotHandler{vouchers: vouchers, users: users}
}

// RegisterRoutes registers the bot surface routes.
func (h *BotHandler) RegisterRoutes(r *gin.RouterGroup) {
	bot := r.Group("/bot")
	{
		bot.POST("/activate-code", h.ActivateCode)
		bot.GET("/user-stats/:chatId", h.UserStats)
		bot.PUT("/users/:chatId/language", h.UpdateLanguage)
		bot.PUT("/users/:chatId/step", h.UpdateBotStep)
	}
}

// ActivateCode handles POST /api/v1/bot/activate-code.
func (h *BotHandler) ActivateCode(c *gin.Context) {
	var req application.ActivateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.vouchers.Activate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UserStats handles GET /api/v1/bot/user-stats/:chatId.
func (h *BotHandler) UserStats(c *gin.Context) {
	stats, err := h.users.GetStats(c.Request.Context(), c.Param("chatId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// UpdateLanguage handles PUT /api/v1/bot/users/:chatId/language.
func (h *BotHandler) UpdateLanguage(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.users.UpdateLanguage(c.Request.Context(), c.Param("chatId"), req.Language); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// UpdateBotStep handles PUT /api/v1/bot/users/:chatId/step.
func (h *BotHandler) UpdateBotStep(c *gin.Context) {
	var req struct {
		Step string `json:"step" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	if err := h.users.UpdateBotStep(c.Request.Context(), c.Param("chatId"), req.Step); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
