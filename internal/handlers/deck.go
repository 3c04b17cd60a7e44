package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/studyforge/studyforge-backend/internal/apperr"
	"github.com/studyforge/studyforge-backend/internal/requestdata"
	"github.com/studyforge/studyforge-backend/internal/services"
)

type DeckHandler struct {
	deckService services.DeckService
	progress    services.ProgressService
}

func NewDeckHandler(deckService services.DeckService, progress services.ProgressService) *DeckHandler {
	return &DeckHandler{deckService: deckService, progress: progress}
}

func (dh *DeckHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("invalid request body"))
		return
	}
	deck, err := dh.deckService.CreateDeck(c.Request.Context(), rd.UserID, req.Title, req.Description)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, deck)
}

func (dh *DeckHandler) List(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	decks, err := dh.deckService.ListDecks(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"decks": decks})
}

func (dh *DeckHandler) Get(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.Validation("invalid deck id"))
		return
	}
	deck, err := dh.deckService.GetDeck(c.Request.Context(), rd.UserID, deckID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, deck)
}

func (dh *DeckHandler) Delete(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.Validation("invalid deck id"))
		return
	}
	if err := dh.deckService.DeleteDeck(c.Request.Context(), rd.UserID, deckID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"message": "deck deleted"})
}

func (dh *DeckHandler) AddFlashcard(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.Validation("invalid deck id"))
		return
	}
	var req struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Validation("invalid request body"))
		return
	}
	card, err := dh.deckService.AddFlashcard(c.Request.Context(), rd.UserID, deckID, req.Question, req.Answer)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (dh *DeckHandler) ListFlashcards(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.Validation("invalid deck id"))
		return
	}
	cards, err := dh.deckService.ListFlashcards(c.Request.Context(), rd.UserID, deckID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"flashcards": cards})
}

// Export streams the deck in the requested format. csv and txt are
// supported; anything else is a validation error.
func (dh *DeckHandler) Export(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.Validation("invalid deck id"))
		return
	}
	format := c.DefaultQuery("format", "csv")

	cards, err := dh.deckService.ListFlashcards(c.Request.Context(), rd.UserID, deckID)
	if err != nil {
		RespondError(c, err)
		return
	}

	switch format {
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="deck-%s.csv"`, deckID))
		c.Data(http.StatusOK, "text/csv", []byte(services.ExportCSV(cards)))
	case "txt":
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="deck-%s.txt"`, deckID))
		c.Data(http.StatusOK, "text/plain", []byte(services.ExportTXT(cards)))
	default:
		RespondError(c, apperr.Validation("unsupported export format %q", format))
	}
}

func (dh *DeckHandler) Stats(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	deckID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, apperr.Validation("invalid deck id"))
		return
	}
	stats, err := dh.progress.DeckStats(c.Request.Context(), rd.UserID, deckID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, stats)
}
