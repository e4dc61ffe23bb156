package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/yayaysya/sixu-recall/internal/domain"
	"github.com/yayaysya/sixu-recall/internal/service"
)

// DeckHandler handles deck and card lifecycle HTTP requests.
type DeckHandler struct {
	decks  *service.DeckService
	logger *slog.Logger
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(decks *service.DeckService, logger *slog.Logger) *DeckHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DeckHandler")
	}

	return &DeckHandler{
		decks:  decks,
		logger: logger.With(slog.String("component", "deck_handler")),
	}
}

// DeckDetailResponse is a deck together with its full card set.
type DeckDetailResponse struct {
	Deck  *domain.Deck   `json:"deck"`
	Cards []*domain.Card `json:"cards"`
}

// ReviewRequest is the body of a submit-review call.
type ReviewRequest struct {
	Rating           int     `json:"rating"`
	TimeTakenSeconds float64 `json:"time_taken_seconds"`
}

// PostponeRequest is the body of a postpone call.
type PostponeRequest struct {
	Days int `json:"days"`
}

// EditCardRequest is the body of a card edit call.
type EditCardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MergeRequest is the body of a merge-decks call.
type MergeRequest struct {
	DeckIDs []uuid.UUID `json:"deck_ids"`
	Name    string      `json:"name"`
}

// ListDecks handles GET /decks.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.decks.ListDecks(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to list decks")
		return
	}

	RespondWithJSON(w, http.StatusOK, decks)
}

// GetDeck handles GET /decks/{deckID}.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.pathUUID(w, r, "deckID")
	if !ok {
		return
	}

	deck, cards, err := h.decks.GetDeck(r.Context(), deckID)
	if err != nil {
		h.respondError(w, err, "failed to load deck")
		return
	}

	RespondWithJSON(w, http.StatusOK, DeckDetailResponse{Deck: deck, Cards: cards})
}

// DeleteDeck handles DELETE /decks/{deckID}.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.pathUUID(w, r, "deckID")
	if !ok {
		return
	}

	if err := h.decks.DeleteDeck(r.Context(), deckID); err != nil {
		h.respondError(w, err, "failed to delete deck")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MergeDecks handles POST /decks/merge.
func (h *DeckHandler) MergeDecks(w http.ResponseWriter, r *http.Request) {
	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.DeckIDs) == 0 {
		RespondWithError(w, http.StatusBadRequest, "deck_ids cannot be empty")
		return
	}

	merged, err := h.decks.MergeDecks(r.Context(), req.DeckIDs, req.Name)
	if err != nil {
		h.respondError(w, err, "failed to merge decks")
		return
	}

	RespondWithJSON(w, http.StatusCreated, merged)
}

// GetStudySet handles GET /decks/{deckID}/study.
func (h *DeckHandler) GetStudySet(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.pathUUID(w, r, "deckID")
	if !ok {
		return
	}

	newLimit := queryInt(r, "new")
	reviewLimit := queryInt(r, "review")

	cards, err := h.decks.SelectStudySet(r.Context(), deckID, newLimit, reviewLimit)
	if err != nil {
		h.respondError(w, err, "failed to select study set")
		return
	}

	RespondWithJSON(w, http.StatusOK, cards)
}

// SubmitReview handles POST /decks/{deckID}/cards/{cardID}/review.
func (h *DeckHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.pathUUID(w, r, "deckID")
	if !ok {
		return
	}
	cardID, ok := h.pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	card, err := h.decks.ApplyReview(r.Context(), deckID, cardID,
		domain.Rating(req.Rating), req.TimeTakenSeconds)
	if err != nil {
		h.respondError(w, err, "failed to apply review")
		return
	}

	RespondWithJSON(w, http.StatusOK, card)
}

// PostponeCard handles POST /decks/{deckID}/cards/{cardID}/postpone.
func (h *DeckHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.pathUUID(w, r, "deckID")
	if !ok {
		return
	}
	cardID, ok := h.pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	var req PostponeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	card, err := h.decks.PostponeCard(r.Context(), deckID, cardID, req.Days)
	if err != nil {
		h.respondError(w, err, "failed to postpone card")
		return
	}

	RespondWithJSON(w, http.StatusOK, card)
}

// EditCard handles PATCH /decks/{deckID}/cards/{cardID}.
func (h *DeckHandler) EditCard(w http.ResponseWriter, r *http.Request) {
	deckID, ok := h.pathUUID(w, r, "deckID")
	if !ok {
		return
	}
	cardID, ok := h.pathUUID(w, r, "cardID")
	if !ok {
		return
	}

	var req EditCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	card, err := h.decks.EditCard(r.Context(), deckID, cardID, req.Question, req.Answer)
	if err != nil {
		h.respondError(w, err, "failed to edit card")
		return
	}

	RespondWithJSON(w, http.StatusOK, card)
}

// pathUUID parses a UUID path parameter, responding 400 on failure.
func (h *DeckHandler) pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// respondError logs the error and writes the mapped status.
func (h *DeckHandler) respondError(w http.ResponseWriter, err error, msg string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	} else {
		h.logger.Debug(msg, "error", err)
	}
	RespondWithError(w, status, messageForStatus(status, err))
}

// queryInt parses an integer query parameter, returning 0 when absent or
// malformed so deck defaults apply.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
