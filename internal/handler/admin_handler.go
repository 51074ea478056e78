package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vostok-promo/service-voucher/internal/application"
	"github.com/vostok-promo/service-voucher/internal/auth"
	voucherDomain "github.com/vostok-promo/service-voucher/internal/domain/voucher"
	"github.com/vostok-promo/service-voucher/internal/middleware"
	"github.com/vostok-promo/service-voucher/internal/response"
)

// AdminHandler serves the admin dashboard surface: CRUD over campaigns and
// brands, voucher generation and listing, user management, lottery actions
// and CSV exports. Thin wrappers over the application services.
type AdminHandler struct {
	vouchers  *application.VoucherService
	users     *application.UserService
	campaigns *application.CampaignService
	brands    *application.BrandService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(
	vouchers *application.VoucherService,
	users *application.UserService,
	campaigns *application.CampaignService,
	brands *application.BrandService,
) *AdminHandler {
	return &AdminHandler{vouchers: vouchers, users: users, campaigns: campaigns, brands: brands}
}

// RegisterRoutes registers all admin routes behind the auth middleware.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(jwtManager))
	{
		admin.GET("/stats", h.DashboardStats)

		admin.GET("/campaigns", h.ListCampaigns)
		admin.GET("/campaigns/:id", h.GetCampaign)
		admin.POST("/campaigns", h.CreateCampaign)
		admin.PUT("/campaigns/:id", h.UpdateCampaign)
		admin.DELETE("/campaigns/:id", h.DeactivateCampaign)

		admin.GET("/brands", h.ListBrands)
		admin.POST("/brands", h.CreateBrand)
		admin.PUT("/brands/:id", h.UpdateBrand)
		admin.DELETE("/brands/:id", h.DeleteBrand)

		admin.GET("/vouchers", h.ListVouchers)
		admin.POST("/vouchers/generate", h.GenerateVouchers)
		admin.GET("/vouchers/export", h.ExportVouchers)
		admin.POST("/vouchers/:code/reset", h.ResetVoucher)

		admin.GET("/users", h.ListUsers)
		admin.GET("/users/export-csv", h.ExportUsers)
		admin.POST("/users/:id/reset-vouchers", h.ResetUserVouchers)

		admin.POST("/check-code", h.CheckCode)
		admin.POST("/mark-winner", h.MarkWinner)

		admin.GET("/broadcast/targets", h.BroadcastTargets)
	}
}

// DashboardStats handles GET /api/v1/admin/stats.
func (h *AdminHandler) DashboardStats(c *gin.Context) {
	stats, err := h.users.DashboardStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// --- Campaigns ---

// ListCampaigns handles GET /api/v1/admin/campaigns.
func (h *AdminHandler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaigns)
}

// GetCampaign handles GET /api/v1/admin/campaigns/:id.
func (h *AdminHandler) GetCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	campaign, err := h.campaigns.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaign)
}

// CreateCampaign handles POST /api/v1/admin/campaigns.
func (h *AdminHandler) CreateCampaign(c *gin.Context) {
	var req application.CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	campaign, err := h.campaigns.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, campaign)
}

// UpdateCampaign handles PUT /api/v1/admin/campaigns/:id.
func (h *AdminHandler) UpdateCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	var req application.UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	campaign, err := h.campaigns.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaign)
}

// DeactivateCampaign handles DELETE /api/v1/admin/campaigns/:id. Campaigns
// are never removed, only switched off.
func (h *AdminHandler) DeactivateCampaign(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid campaign id")
		return
	}
	campaign, err := h.campaigns.Deactivate(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, campaign)
}

// --- Brands ---

// ListBrands handles GET /api/v1/admin/brands.
func (h *AdminHandler) ListBrands(c *gin.Context) {
	brands, err := h.brands.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, brands)
}

// CreateBrand handles POST /api/v1/admin/brands.
func (h *AdminHandler) CreateBrand(c *gin.Context) {
	var req application.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	brand, err := h.brands.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, brand)
}

// UpdateBrand handles PUT /api/v1/admin/brands/:id.
func (h *AdminHandler) UpdateBrand(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid brand id")
		return
	}
	var req application.UpdateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	brand, err := h.brands.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, brand)
}

// DeleteBrand handles DELETE /api/v1/admin/brands/:id.
func (h *AdminHandler) DeleteBrand(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid brand id")
		return
	}
	if err := h.brands.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// --- Vouchers ---

// ListVouchers handles GET /api/v1/admin/vouchers.
func (h *AdminHandler) ListVouchers(c *gin.Context) {
	filter, err := voucherFilterFromQuery(c)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	vouchers, total, err := h.vouchers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, vouchers, total, filter.Page, filter.Limit)
}

// GenerateVouchers handles POST /api/v1/admin/vouchers/generate.
func (h *AdminHandler) GenerateVouchers(c *gin.Context) {
	var req application.GenerateVouchersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	vouchers, err := h.vouchers.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, vouchers)
}

// ExportVouchers handles GET /api/v1/admin/vouchers/export as CSV.
func (h *AdminHandler) ExportVouchers(c *gin.Context) {
	var campaignID, brandID *uuid.UUID
	if raw := c.Query("campaignId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid campaignId")
			return
		}
		campaignID = &id
	}
	if raw := c.Query("brandId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid brandId")
			return
		}
		brandID = &id
	}

	vouchers, err := h.vouchers.Export(c.Request.Context(), campaignID, brandID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=vouchers.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"Code", "Brand", "Campaign", "Status", "UserID", "ActivatedAt"})
	for _, v := range vouchers {
		userID, activatedAt := "", ""
		if v.UserID != nil {
			userID = v.UserID.String()
		}
		if v.ActivatedAt != nil {
			activatedAt = v.ActivatedAt.Format("2006-01-02 15:04:05")
		}
		_ = w.Write([]string{v.Code, v.Brand, v.Campaign, v.Status, userID, activatedAt})
	}
	w.Flush()
}

// ResetVoucher handles POST /api/v1/admin/vouchers/:code/reset.
func (h *AdminHandler) ResetVoucher(c *gin.Context) {
	if err := h.vouchers.ResetVoucher(c.Request.Context(), c.Param("code")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// --- Users ---

// ListUsers handles GET /api/v1/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	req := application.ListUsersRequest{
		Search: c.Query("search"),
		Page:   intQuery(c, "page", 1),
		Limit:  intQuery(c, "limit", 20),
	}
	if raw := c.Query("eligible"); raw != "" {
		eligible := raw == "true"
		req.Eligible = &eligible
	}
	if raw := c.Query("campaignId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid campaignId")
			return
		}
		req.CampaignID = &id
	}

	users, total, err := h.users.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, users, total, req.Page, req.Limit)
}

// ExportUsers handles GET /api/v1/admin/users/export-csv.
func (h *AdminHandler) ExportUsers(c *gin.Context) {
	users, _, err := h.users.List(c.Request.Context(), application.ListUsersRequest{Page: 1, Limit: 100000})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=users.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	w.Comma = ';'
	_ = w.Write([]string{"ID", "Name", "Phone", "ChatID", "Vouchers", "Brands", "Eligible", "RegisteredAt"})
	for _, u := range users {
		_ = w.Write([]string{
			u.ID.String(),
			u.Name,
			u.Phone,
			u.ChatID,
			strconv.Itoa(u.TotalVouchers),
			strconv.Itoa(u.BrandCount),
			strconv.FormatBool(u.Eligible),
			u.CreatedAt.Format("2006-01-02"),
		})
	}
	w.Flush()
}

// ResetUserVouchers handles POST /api/v1/admin/users/:id/reset-vouchers.
func (h *AdminHandler) ResetUserVouchers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	count, err := h.vouchers.ResetUserVouchers(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true, "reset": count})
}

// --- Lottery ---

// CheckCode handles POST /api/v1/admin/check-code.
func (h *AdminHandler) CheckCode(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	snapshot, err := h.vouchers.CheckCode(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, snapshot)
}

// MarkWinner handles POST /api/v1/admin/mark-winner.
func (h *AdminHandler) MarkWinner(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	winner, err := h.vouchers.ConfirmWinner(c.Request.Context(), req.Code)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, winner)
}

// --- Broadcast ---

// BroadcastTargets handles GET /api/v1/admin/broadcast/targets.
func (h *AdminHandler) BroadcastTargets(c *gin.Context) {
	var filter application.TargetFilter
	if raw := c.Query("eligible"); raw != "" {
		eligible := raw == "true"
		filter.Eligible = &eligible
	}
	if raw := c.Query("minVouchers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid minVouchers")
			return
		}
		filter.MinVouchers = &n
	}
	if raw := c.Query("maxRemaining"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "invalid maxRemaining")
			return
		}
		filter.MaxRemaining = &n
	}

	targets, err := h.users.TargetUsers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, targets)
}

func voucherFilterFromQuery(c *gin.Context) (voucherDomain.ListFilter, error) {
	filter := voucherDomain.ListFilter{
		Code:  c.Query("code"),
		Page:  intQuery(c, "page", 1),
		Limit: intQuery(c, "limit", 20),
	}
	if raw := c.Query("campaignId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid campaignId")
		}
		filter.CampaignID = &id
	}
	if raw := c.Query("brandId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fmt.Errorf("invalid brandId")
		}
		filter.BrandID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := voucherDomain.Status(raw)
		filter.Status = &status
	}
	return filter, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.DefaultQuery(key, strconv.Itoa(fallback)))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
