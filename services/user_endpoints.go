package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/sensai/backend/models"
)

// historyLimit caps how many guidance exchanges the history endpoint returns
const historyLimit = 50

// UserStore is the storage behind the profile and history endpoints
type UserStore interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	SaveOnboarding(ctx context.Context, user *models.User, profile models.ProfileFields) (*models.User, error)
	UpdateUserProfile(ctx context.Context, externalID string, profile models.ProfileFields) (*models.User, error)
	GetCoverLetters(ctx context.Context, userID string) ([]models.CoverLetter, error)
	GetResumes(ctx context.Context, userID string) ([]models.Resume, error)
	GetInterviewSessions(ctx context.Context, userID string) ([]models.InterviewSession, error)
	GetCareerSessions(ctx context.Context, userID string, limit int) ([]models.CareerSession, error)
}

var errProfileNotFound = errors.New("profile not found")

type UserEndpoints struct {
	repo UserStore
}

func NewUserEndpoints(repo UserStore) *UserEndpoints {
	return &UserEndpoints{repo: repo}
}

type UserResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

type CoverLettersResponse struct {
	Success      bool                 `json:"success"`
	CoverLetters []models.CoverLetter `json:"coverLetters"`
}

type ResumesResponse struct {
	Success bool            `json:"success"`
	Resumes []models.Resume `json:"resumes"`
}

type InterviewSessionsResponse struct {
	Success  bool                      `json:"success"`
	Sessions []models.InterviewSession `json:"sessions"`
}

type CareerSessionsResponse struct {
	Success  bool                   `json:"success"`
	Sessions []models.CareerSession `json:"sessions"`
}

func (e *UserEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/user", func(r chi.Router) {
		r.Post("/onboarding", e.OnboardingHandler)
		r.Get("/profile", e.ProfileHandler)
		r.Post("/settings", e.SettingsHandler)

		r.Get("/cover-letters", e.CoverLettersHandler)
		r.Get("/resumes", e.ResumesHandler)
		r.Get("/interview-sessions", e.InterviewSessionsHandler)
		r.Get("/career-sessions", e.CareerSessionsHandler)
	})
}

// OnboardingHandler creates the profile from the identity claims on first
// call and overwrites the profile fields afterwards
func (e *UserEndpoints) OnboardingHandler(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, ErrUnauthorized, msgUnauthorized)
		return
	}

	var req models.ProfileFields
	if err := decodeRequest(r.Body, &req); err != nil {
		respondError(w, err, msgInvalidRequest)
		return
	}

	user, err := e.repo.SaveOnboarding(r.Context(), &models.User{
		ExternalID: identity.ExternalID,
		Email:      identity.Email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
		ImageURL:   identity.ImageURL,
	}, req)
	if err != nil {
		slog.Error("Failed to save profile", "error", err, "external_id", identity.ExternalID)
		respondError(w, err, "Failed to save profile")
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// ProfileHandler returns the caller's profile; user is null before onboarding
func (e *UserEndpoints) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, ErrUnauthorized, msgUnauthorized)
		return
	}

	user, err := e.repo.GetUserByExternalID(r.Context(), identity.ExternalID)
	if err != nil {
		slog.Error("Failed to fetch profile", "error", err, "external_id", identity.ExternalID)
		respondError(w, err, "Failed to fetch profile")
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}

func (e *UserEndpoints) SettingsHandler(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, ErrUnauthorized, msgUnauthorized)
		return
	}

	var req models.ProfileFields
	if err := decodeRequest(r.Body, &req); err != nil {
		respondError(w, err, msgInvalidRequest)
		return
	}

	user, err := e.repo.UpdateUserProfile(r.Context(), identity.ExternalID, req)
	if err == nil && user == nil {
		err = errProfileNotFound
	}
	if err != nil {
		slog.Error("Failed to update settings", "error", err, "external_id", identity.ExternalID)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to update settings", Details: err.Error()})
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{Success: true, User: user})
}

// currentUser resolves the caller's stored user for the history endpoints.
// It writes the error response itself and returns ok=false on failure.
func (e *UserEndpoints) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		respondError(w, ErrUnauthorized, msgUnauthorized)
		return nil, false
	}
	user, err := e.repo.GetUserByExternalID(r.Context(), identity.ExternalID)
	if err != nil {
		slog.Error("Failed to fetch profile", "error", err, "external_id", identity.ExternalID)
		respondError(w, err, "Failed to fetch profile")
		return nil, false
	}
	return user, true
}

func (e *UserEndpoints) CoverLettersHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := e.currentUser(w, r)
	if !ok {
		return
	}
	letters := []models.CoverLetter{}
	if user != nil {
		found, err := e.repo.GetCoverLetters(r.Context(), user.ID)
		if err != nil {
			respondError(w, err, "Failed to fetch cover letters")
			return
		}
		letters = append(letters, found...)
	}
	respondJSON(w, http.StatusOK, CoverLettersResponse{Success: true, CoverLetters: letters})
}

func (e *UserEndpoints) ResumesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := e.currentUser(w, r)
	if !ok {
		return
	}
	resumes := []models.Resume{}
	if user != nil {
		found, err := e.repo.GetResumes(r.Context(), user.ID)
		if err != nil {
			respondError(w, err, "Failed to fetch resumes")
			return
		}
		resumes = append(resumes, found...)
	}
	respondJSON(w, http.StatusOK, ResumesResponse{Success: true, Resumes: resumes})
}

func (e *UserEndpoints) InterviewSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := e.currentUser(w, r)
	if !ok {
		return
	}
	sessions := []models.InterviewSession{}
	if user != nil {
		found, err := e.repo.GetInterviewSessions(r.Context(), user.ID)
		if err != nil {
			respondError(w, err, "Failed to fetch interview sessions")
			return
		}
		sessions = append(sessions, found...)
	}
	respondJSON(w, http.StatusOK, InterviewSessionsResponse{Success: true, Sessions: sessions})
}

func (e *UserEndpoints) CareerSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := e.currentUser(w, r)
	if !ok {
		return
	}
	sessions := []models.CareerSession{}
	if user != nil {
		found, err := e.repo.GetCareerSessions(r.Context(), user.ID, historyLimit)
		if err != nil {
			respondError(w, err, "Failed to fetch career sessions")
			return
		}
		sessions = append(sessions, found...)
	}
	respondJSON(w, http.StatusOK, CareerSessionsResponse{Success: true, Sessions: sessions})
}
