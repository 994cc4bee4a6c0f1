package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/adcraft/creative-engine/internal/auth"
	"github.com/adcraft/creative-engine/internal/domain"
	"github.com/adcraft/creative-engine/internal/generation"
	"github.com/adcraft/creative-engine/internal/infra"
	"github.com/adcraft/creative-engine/internal/infra/geoip"
	"github.com/adcraft/creative-engine/internal/middleware"
)

// GenerationService is the queue surface the handlers need.
type GenerationService interface {
	QueueGeneration(req domain.GenerationRequest, priority domain.Priority) (string, error)
	GetQueueStatus(id string) (domain.QueueItem, bool)
	GetAllQueueItems() []domain.QueueItem
	CancelGeneration(id string) error
	RetryGeneration(id string) error
	Usage() generation.UsageSummary
}

// App carries the handler dependencies.
type App struct {
	Logger     infra.Logger
	Users      *auth.Store
	Tokens     *auth.TokenService
	Generation GenerationService
	Geo        geoip.ContextResolver
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

// domainError maps sentinel errors onto HTTP responses.
func (a *App) domainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrItemTerminal):
		a.error(w, http.StatusConflict, "conflict", "item already finished")
	case errors.Is(err, domain.ErrNotRetryable):
		a.error(w, http.StatusConflict, "conflict", "only failed items can be retried")
	case errors.Is(err, auth.ErrEmailTaken):
		a.error(w, http.StatusConflict, "conflict", "email already registered")
	default:
		a.Logger.Error().Err(err).Msg("handler: internal error")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// clientIP returns the request address without the port. RealIP middleware
// has already folded forwarding headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
