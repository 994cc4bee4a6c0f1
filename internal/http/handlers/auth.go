package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/adcraft/creative-engine/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type sessionResponse struct {
	User   auth.Profile   `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

func (a *App) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	profile, err := a.Users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		a.domainError(w, err)
		return
	}
	tokens, err := a.Tokens.Issue(profile)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusCreated, sessionResponse{User: profile, Tokens: tokens})
}

func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	profile, err := a.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		a.domainError(w, err)
		return
	}
	tokens, err := a.Tokens.Issue(profile)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionResponse{User: profile, Tokens: tokens})
}

func (a *App) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "refresh_token required")
		return
	}
	userID, err := a.Tokens.Rotate(req.RefreshToken)
	if err != nil {
		a.domainError(w, err)
		return
	}
	profile, err := a.Users.GetByID(userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	tokens, err := a.Tokens.Issue(profile)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, sessionResponse{User: profile, Tokens: tokens})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	profile, err := a.Users.GetByID(userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, profile)
}
