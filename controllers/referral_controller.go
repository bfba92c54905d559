package controllers

import (
	"net/http"
	"strconv"

	"github.com/drme990/manasik-v2-sub001/middleware"
	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/services"
	"github.com/gin-gonic/gin"
)

type ReferralController struct {
	referralService services.ReferralService
}

func NewReferralController(referralService services.ReferralService) *ReferralController {
	return &ReferralController{referralService: referralService}
}

// GetOrderReferral handles GET /api/admin/orders/:paymobOrderId/referral.
// A missing referral is a 200 with referral=null.
func (rc *ReferralController) GetOrderReferral(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("paymobOrderId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Paymob order id"})
		return
	}

	res, svcErr := rc.referralService.FindReferralForOrder(ctx.Request.Context(), id)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// CreateReferral handles POST /api/admin/referrals.
func (rc *ReferralController) CreateReferral(ctx *gin.Context) {
	var req models.CreateReferralRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	actor, _ := middleware.GetUserID(ctx)
	referral, svcErr := rc.referralService.CreateReferral(ctx.Request.Context(), actor, &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"referral": referral})
}

// ListReferrals handles GET /api/admin/referrals.
func (rc *ReferralController) ListReferrals(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	referrals, total, svcErr := rc.referralService.ListReferrals(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"referrals": referrals,
		"meta":      paginationMeta(page, limit, total),
	})
}
