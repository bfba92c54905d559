package controllers

import (
	"net/http"

	"github.com/drme990/manasik-v2-sub001/services"
	"github.com/gin-gonic/gin"
)

type ActivityController struct {
	activityService services.ActivityService
}

func NewActivityController(activityService services.ActivityService) *ActivityController {
	return &ActivityController{activityService: activityService}
}

// ListActivities handles GET /api/admin/activities.
func (ac *ActivityController) ListActivities(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)

	activities, total, svcErr := ac.activityService.ListActivities(ctx.Request.Context(), page, limit)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"activities": activities,
		"meta":       paginationMeta(page, limit, total),
	})
}
