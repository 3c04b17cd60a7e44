package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/services"
)

type StatsHandler struct {
	progress services.ProgressService
}

func NewStatsHandler(progress services.ProgressService) *StatsHandler {
	return &StatsHandler{progress: progress}
}

func (sh *StatsHandler) UserStats(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	stats, err := sh.progress.UserStats(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, stats)
}
