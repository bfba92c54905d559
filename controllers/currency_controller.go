package controllers

import (
	"net/http"
	"strconv"

	"github.com/drme990/manasik-v2-sub001/middleware"
	"github.com/drme990/manasik-v2-sub001/services"
	"github.com/gin-gonic/gin"
)

// DefaultBaseCurrency is used when a request names no base.
const DefaultBaseCurrency = "SAR"

type CurrencyController struct {
	currencyService services.CurrencyService
}

func NewCurrencyController(currencyService services.CurrencyService) *CurrencyController {
	return &CurrencyController{currencyService: currencyService}
}

// GetRates handles GET /api/currency/rates?base=.
func (cc *CurrencyController) GetRates(ctx *gin.Context) {
	base := ctx.DefaultQuery("base", DefaultBaseCurrency)

	res, svcErr := cc.currencyService.GetRates(ctx.Request.Context(), base)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// Convert handles GET /api/currency/convert?base=&target=&amount=.
// Without a target it answers with the full rate table for base.
func (cc *CurrencyController) Convert(ctx *gin.Context) {
	base := ctx.DefaultQuery("base", DefaultBaseCurrency)
	target := ctx.Query("target")
	if target == "" {
		cc.GetRates(ctx)
		return
	}

	amount := 1.0
	if raw := ctx.Query("amount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		amount = v
	}

	res, svcErr := cc.currencyService.Convert(ctx.Request.Context(), amount, base, target)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// SupportedCurrencies handles GET /api/currency/supported.
func (cc *CurrencyController) SupportedCurrencies(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"currencies": cc.currencyService.SupportedCurrencies()})
}

// RefreshRates handles POST /api/admin/currency/refresh?base=.
func (cc *CurrencyController) RefreshRates(ctx *gin.Context) {
	actor, _ := middleware.GetUserID(ctx)

	res, svcErr := cc.currencyService.RefreshRates(ctx.Request.Context(), actor, ctx.DefaultQuery("base", DefaultBaseCurrency))
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, res)
}
