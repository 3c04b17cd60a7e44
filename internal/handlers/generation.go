package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/services"
)

type GenerationHandler struct {
	generationService services.GenerationService
}

func NewGenerationHandler(generationService services.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

func (gh *GenerationHandler) Generate(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Content string `json:"content"`
		DeckID  string `json:"deckId"`
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

	result, err := gh.generationService.GenerateForDeck(c.Request.Context(), rd.UserID, deckID, req.Content)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"success":    true,
		"flashcards": result.Flashcards,
		"count":      result.Count,
		"tokensUsed": result.TokensUsed,
	})
}
