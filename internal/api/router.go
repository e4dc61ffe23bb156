package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter assembles the HTTP routes for the engine.
func NewRouter(decks *DeckHandler, generate *GenerateHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", decks.ListDecks)
		r.Post("/decks/generate", generate.GenerateFromNote)
		r.Post("/decks/generate-path", generate.GenerateFromPath)
		r.Post("/decks/merge", decks.MergeDecks)

		r.Route("/decks/{deckID}", func(r chi.Router) {
			r.Get("/", decks.GetDeck)
			r.Delete("/", decks.DeleteDeck)
			r.Get("/study", decks.GetStudySet)

			r.Route("/cards/{cardID}", func(r chi.Router) {
				r.Patch("/", decks.EditCard)
				r.Post("/review", decks.SubmitReview)
				r.Post("/postpone", decks.PostponeCard)
			})
		})
	})

	return r
}
