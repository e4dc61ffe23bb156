package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yayaysya/sixu-recall/internal/pipeline"
	"github.com/yayaysya/sixu-recall/internal/service"
)

// GenerateHandler handles card generation HTTP requests.
type GenerateHandler struct {
	generate *service.GenerateService
	logger   *slog.Logger
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(generate *service.GenerateService, logger *slog.Logger) *GenerateHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GenerateHandler")
	}

	return &GenerateHandler{
		generate: generate,
		logger:   logger.With(slog.String("component", "generate_handler")),
	}
}

// GenerateRequest is the body of a generate-from-note call.
type GenerateRequest struct {
	SourceNote string `json:"source_note"`
	DeckName   string `json:"deck_name"`
	Count      int    `json:"count"`
}

// GeneratePathRequest is the body of a generate-from-learning-path call.
type GeneratePathRequest struct {
	Files    []string `json:"files"`
	PathName string   `json:"path_name"`
}

// PathFailureResponse is one failed file in a learning-path result.
type PathFailureResponse struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// GeneratePathResponse reports a learning-path generation as partial
// success: created decks plus the files that failed.
type GeneratePathResponse struct {
	Results  []service.PathFileResult `json:"results"`
	Failures []PathFailureResponse    `json:"failures"`
}

// GenerateFromNote handles POST /decks/generate.
func (h *GenerateHandler) GenerateFromNote(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SourceNote == "" {
		RespondWithError(w, http.StatusBadRequest, "source_note is required")
		return
	}

	result, err := h.generate.GenerateFromNote(r.Context(), service.GenerateOptions{
		SourceNote: req.SourceNote,
		DeckName:   req.DeckName,
		Count:      req.Count,
	}, h.logProgress(r))
	if err != nil {
		h.respondError(w, err, "generation failed")
		return
	}

	RespondWithJSON(w, http.StatusCreated, result)
}

// GenerateFromPath handles POST /decks/generate-path.
func (h *GenerateHandler) GenerateFromPath(w http.ResponseWriter, r *http.Request) {
	var req GeneratePathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.generate.GenerateFromLearningPath(r.Context(), req.Files, req.PathName, h.logProgress(r))
	if err != nil {
		h.respondError(w, err, "learning path generation failed")
		return
	}

	resp := GeneratePathResponse{
		Results:  result.Results,
		Failures: make([]PathFailureResponse, 0, len(result.Failures)),
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, PathFailureResponse{
			FileName: failure.FileName,
			Error:    failure.Err.Error(),
		})
	}

	RespondWithJSON(w, http.StatusCreated, resp)
}

// logProgress turns pipeline progress into debug log lines. Progress over
// HTTP is advisory only; streaming it to clients is the host UI's concern.
func (h *GenerateHandler) logProgress(r *http.Request) pipeline.Reporter {
	return func(p pipeline.Progress) {
		h.logger.DebugContext(r.Context(), "generation progress",
			"percent", p.Percent,
			"message", p.Message)
	}
}

// respondError logs the error and writes the mapped status.
func (h *GenerateHandler) respondError(w http.ResponseWriter, err error, msg string) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, "error", err)
	} else {
		h.logger.Debug(msg, "error", err)
	}
	RespondWithError(w, status, messageForStatus(status, err))
}
