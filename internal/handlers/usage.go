package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/services"
)

type UsageHandler struct {
	usageService services.UsageService
}

func NewUsageHandler(usageService services.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

func (uh *UsageHandler) Limits(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	limits := uh.usageService.CheckLimits(c.Request.Context(), rd.UserID)
	RespondOK(c, limits)
}

func (uh *UsageHandler) Stats(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	stats, err := uh.usageService.GetStats(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, stats)
}
