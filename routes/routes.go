package routes

import (
	"net/http"

	commonmw "github.com/drme990/manasik-v2-sub001/common/middleware"
	"github.com/drme990/manasik-v2-sub001/controllers"
	"github.com/drme990/manasik-v2-sub001/middleware"
	"github.com/gin-gonic/gin"
)

// Controllers bundles every HTTP handler the service exposes.
type Controllers struct {
	Coupons    *controllers.CouponController
	Currency   *controllers.CurrencyController
	Referrals  *controllers.ReferralController
	Payments   *controllers.PaymentController
	Activities *controllers.ActivityController
}

// Options tunes route-level middleware.
type Options struct {
	ValidateRatePerMinute int
	ValidateRateBurst     int
}

// RegisterRoutes sets up the public, callback and admin route groups.
func RegisterRoutes(r *gin.Engine, c Controllers, parser *middleware.TokenParser, opts Options) {
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "OK", "service": "manasik"})
	})

	api := r.Group("/api")

	coupons := api.Group("/coupons")
	coupons.POST("/validate",
		commonmw.RateLimit(opts.ValidateRatePerMinute, opts.ValidateRateBurst),
		middleware.OptionalAuth(parser),
		c.Coupons.ValidateCoupon,
	)

	currency := api.Group("/currency")
	currency.GET("/rates", c.Currency.GetRates)
	currency.GET("/convert", c.Currency.Convert)
	currency.GET("/supported", c.Currency.SupportedCurrencies)

	api.POST("/payments/paymob/callback", c.Payments.PaymobCallback)

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(parser), middleware.AdminOnly())
	admin.GET("/coupons", c.Coupons.ListCoupons)
	admin.POST("/coupons", c.Coupons.CreateCoupon)
	admin.GET("/coupons/:code", c.Coupons.GetCoupon)
	admin.PATCH("/coupons/:code/status", c.Coupons.UpdateCouponStatus)
	admin.POST("/currency/refresh", c.Currency.RefreshRates)
	admin.GET("/referrals", c.Referrals.ListReferrals)
	admin.POST("/referrals", c.Referrals.CreateReferral)
	admin.GET("/orders/:paymobOrderId/referral", c.Referrals.GetOrderReferral)
	admin.GET("/activities", c.Activities.ListActivities)
}
