package controllers

import (
	"net/http"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/services"
	"github.com/gin-gonic/gin"
)

type PaymentController struct {
	paymentService services.PaymentService
}

func NewPaymentController(paymentService services.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

// PaymobCallback handles POST /api/payments/paymob/callback?hmac=.
func (pc *PaymentController) PaymobCallback(ctx *gin.Context) {
	signature := ctx.Query("hmac")
	if signature == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Missing HMAC signature"})
		return
	}

	var cb models.PaymobCallback
	if err := ctx.ShouldBindJSON(&cb); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid callback payload"})
		return
	}

	res, svcErr := pc.paymentService.HandlePaymobCallback(ctx.Request.Context(), &cb, signature)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, res)
}
