package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/prompt"
)

type enhanceRequest struct {
	Prompt          string                 `json:"prompt"`
	ImageType       domain.ImageType       `json:"image_type"`
	Territory       domain.Territory       `json:"territory"`
	Brand           domain.BrandGuidelines `json:"brand"`
	CulturalContext domain.CulturalContext `json:"cultural_context"`
}

type queueRequest struct {
	Request  domain.GenerationRequest `json:"request"`
	Priority domain.Priority          `json:"priority"`
	Enhance  bool                     `json:"enhance"`
}

type queueResponse struct {
	QueueID string `json:"queue_id"`
	Status  string `json:"status"`
}

// Enhance runs the prompt enhancer without queueing anything, so clients can
// preview and edit the provider-ready prompt.
func (a *App) Enhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Prompt == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "prompt required")
		return
	}
	cultural := a.resolveCulturalContext(r, req.CulturalContext)
	result := prompt.Enhance(req.Prompt, req.Territory, req.Brand, req.ImageType, cultural)
	a.json(w, http.StatusOK, result)
}

// Queue enqueues a generation request and returns its queue id immediately.
func (a *App) Queue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	gen := req.Request
	gen.CulturalContext = a.resolveCulturalContext(r, gen.CulturalContext)
	if req.Enhance && gen.EnhancedPrompt == "" {
		enhanced := prompt.Enhance(gen.Prompt, gen.Territory, gen.Brand, gen.ImageType, gen.CulturalContext)
		gen.EnhancedPrompt = enhanced.EnhancedPrompt
		if gen.NegativePrompt == "" {
			gen.NegativePrompt = enhanced.NegativePrompt
		}
	}
	id, err := a.Generation.QueueGeneration(gen, req.Priority)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, queueResponse{QueueID: id, Status: string(domain.StatusQueued)})
}

func (a *App) QueueStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, ok := a.Generation.GetQueueStatus(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "queue item not found")
		return
	}
	a.json(w, http.StatusOK, item)
}

func (a *App) QueueList(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, a.Generation.GetAllQueueItems())
}

func (a *App) QueueCancel(w http.ResponseWriter, r *http.Request) {
	if err := a.Generation.CancelGeneration(chi.URLParam(r, "id")); err != nil {
		a.domainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) QueueRetry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := a.Generation.RetryGeneration(id); err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, queueResponse{QueueID: id, Status: string(domain.StatusQueued)})
}

// resolveCulturalContext keeps an explicit client choice, otherwise derives
// one from the caller's IP. Without a geo database everything is global.
func (a *App) resolveCulturalContext(r *http.Request, explicit domain.CulturalContext) domain.CulturalContext {
	if explicit != "" {
		return explicit
	}
	if a.Geo == nil {
		return domain.CulturalContextGlobal
	}
	cultural, err := a.Geo.CulturalContext(clientIP(r))
	if err != nil {
		return domain.CulturalContextGlobal
	}
	return cultural
}
