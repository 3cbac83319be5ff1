package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/melodia/melodia-api/internal/api/middleware"
	"github.com/melodia/melodia-api/internal/api/shared"
	"github.com/melodia/melodia-api/internal/service"
)

// PromptHandler serves the prompt submission and query endpoints.
type PromptHandler struct {
	service *service.PromptService
}

// NewPromptHandler creates a PromptHandler.
func NewPromptHandler(svc *service.PromptService) *PromptHandler {
	if svc == nil {
		panic("prompt service cannot be nil")
	}
	return &PromptHandler{service: svc}
}

// SubmitPrompt handles POST /api/prompts. Accepted prompts return 202
// with the PENDING record; the outcome arrives later via polling or the
// websocket.
func (h *PromptHandler) SubmitPrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
		return
	}

	var req SubmitPromptRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Prompt text is required")
		return
	}

	prompt, err := h.service.Submit(r.Context(), userID, req.Text)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, NewPromptResponse(prompt, nil))
}

// GetPrompt handles GET /api/prompts/{id}.
func (h *PromptHandler) GetPrompt(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
		return
	}

	promptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid prompt ID")
		return
	}

	prompt, artifact, err := h.service.GetPrompt(r.Context(), userID, promptID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewPromptResponse(prompt, artifact))
}

// ListPrompts handles GET /api/prompts with limit/offset pagination.
func (h *PromptHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
		return
	}

	limit := parseQueryInt(r, "limit", 0)
	offset := parseQueryInt(r, "offset", 0)

	prompts, err := h.service.ListPrompts(r.Context(), userID, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := PromptListResponse{
		Prompts: make([]PromptResponse, 0, len(prompts)),
		Limit:   limit,
		Offset:  offset,
	}
	for _, prompt := range prompts {
		resp.Prompts = append(resp.Prompts, NewPromptResponse(prompt, nil))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

func parseQueryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
