package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/services"
)

type StudyHandler struct {
	studyService services.StudyService
}

func NewStudyHandler(studyService services.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

// RecordOutcome accepts either a card id or a card index into the deck's
// newest-first ordering.
func (sh *StudyHandler) RecordOutcome(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		DeckID    string  `json:"deckId"`
		CardID    *string `json:"cardId"`
		CardIndex *int    `json:"cardIndex"`
		Status    string  `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("invalid request body"))
		return
	}
	deckID, err := uuid.Parse(req.DeckID)
	if err != nil {
		RespondError(c, apperr.Validation("deckId is required"))
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.CardID != nil:
		cardID, pErr := uuid.Parse(*req.CardID)
		if pErr != nil {
			RespondError(c, apperr.Validation("invalid card id"))
			return
		}
		err = sh.studyService.RecordOutcomeByCard(ctx, rd.UserID, deckID, cardID, req.Status)
	case req.CardIndex != nil:
		err = sh.studyService.RecordOutcome(ctx, rd.UserID, deckID, *req.CardIndex, req.Status)
	default:
		RespondError(c, apperr.Validation("card_id or card_index is required"))
		return
	}
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"recorded": true})
}
