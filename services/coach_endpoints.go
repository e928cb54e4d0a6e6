package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/sensai/backend/models"
)

const (
	msgParseFailed    = "Failed to parse AI response"
	msgInvalidRequest = "Invalid request"
	msgUnauthorized   = "Unauthorized"
)

// failureMessages is the caller-facing error per use case
var failureMessages = map[UseCase]string{
	UseCaseGuidance:    "Failed to get AI response",
	UseCaseCoverLetter: "Failed to generate cover letter",
	UseCaseQuestions:   "Failed to generate questions",
	UseCaseInsights:    "Failed to get industry insights",
	UseCaseFeedback:    "Failed to get feedback",
	UseCaseResume:      "Failed to optimize resume",
}

// errorMessageFor picks the message for err raised by use case uc
func errorMessageFor(uc UseCase, err error) string {
	var (
		extraction *ExtractionError
		validation *ValidationError
	)
	switch {
	case errors.Is(err, ErrUnauthorized):
		return msgUnauthorized
	case errors.As(err, &validation):
		return msgInvalidRequest
	case errors.As(err, &extraction):
		if uc == UseCaseFeedback {
			return "Failed to parse feedback"
		}
		return msgParseFailed
	default:
		return failureMessages[uc]
	}
}

type CoachEndpoints struct {
	coach *Coach
	chat  http.Handler
}

func NewCoachEndpoints(coach *Coach) *CoachEndpoints {
	return &CoachEndpoints{coach: coach}
}

// WithChat serves the guidance socket next to the guidance endpoint
func (e *CoachEndpoints) WithChat(chat http.Handler) *CoachEndpoints {
	e.chat = chat
	return e
}

type GuidanceResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
}

type CoverLetterResponse struct {
	Success     bool   `json:"success"`
	CoverLetter string `json:"coverLetter"`
}

type QuestionsResponse struct {
	Success   bool                       `json:"success"`
	Questions []models.InterviewQuestion `json:"questions"`
}

type InsightsResponse struct {
	Success  bool                     `json:"success"`
	Insights *models.IndustryInsights `json:"insights"`
}

type FeedbackResponse struct {
	Success  bool                      `json:"success"`
	Feedback *models.InterviewFeedback `json:"feedback"`
}

type ResumeResponse struct {
	Success  bool                   `json:"success"`
	Analysis *models.ResumeAnalysis `json:"analysis"`
}

func (e *CoachEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/ai", func(r chi.Router) {
		r.Post("/career-guidance", e.GuidanceHandler)
		if e.chat != nil {
			r.Get("/career-guidance/ws", e.chat.ServeHTTP)
		}
		r.Post("/generate-cover-letter", e.CoverLetterHandler)
		r.Post("/generate-questions", e.QuestionsHandler)
		r.Post("/industry-insights", e.InsightsHandler)
		r.Post("/interview-feedback", e.FeedbackHandler)
		r.Post("/optimize-resume", e.ResumeHandler)
	})
}

func (e *CoachEndpoints) fail(w http.ResponseWriter, r *http.Request, uc UseCase, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Coaching request failed", "use_case", uc, "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Coaching request rejected", "use_case", uc, "error", err, "path", r.URL.Path)
	}
	respondError(w, err, errorMessageFor(uc, err))
}

// serve runs one use case: identity check, decode and validate the body, call
// the coach and wrap the result in the response envelope
func serve[Req, Resp any](e *CoachEndpoints, uc UseCase, run func(context.Context, *Identity, Req) (Resp, error), wrap func(Resp) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if identity == nil {
			e.fail(w, r, uc, ErrUnauthorized)
			return
		}

		var req Req
		if err := decodeRequest(r.Body, &req); err != nil {
			e.fail(w, r, uc, err)
			return
		}

		result, err := run(r.Context(), identity, req)
		if err != nil {
			e.fail(w, r, uc, err)
			return
		}
		respondJSON(w, http.StatusOK, wrap(result))
	}
}

func (e *CoachEndpoints) GuidanceHandler(w http.ResponseWriter, r *http.Request) {
	serve(e, UseCaseGuidance, e.coach.Guidance, func(reply string) any {
		return GuidanceResponse{Success: true, Response: reply}
	})(w, r)
}

func (e *CoachEndpoints) CoverLetterHandler(w http.ResponseWriter, r *http.Request) {
	serve(e, UseCaseCoverLetter, e.coach.CoverLetter, func(letter string) any {
		return CoverLetterResponse{Success: true, CoverLetter: letter}
	})(w, r)
}

func (e *CoachEndpoints) QuestionsHandler(w http.ResponseWriter, r *http.Request) {
	serve(e, UseCaseQuestions, e.coach.Questions, func(questions []models.InterviewQuestion) any {
		return QuestionsResponse{Success: true, Questions: questions}
	})(w, r)
}

func (e *CoachEndpoints) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	serve(e, UseCaseInsights, e.coach.Insights, func(insights *models.IndustryInsights) any {
		return InsightsResponse{Success: true, Insights: insights}
	})(w, r)
}

func (e *CoachEndpoints) FeedbackHandler(w http.ResponseWriter, r *http.Request) {
	serve(e, UseCaseFeedback, e.coach.Feedback, func(feedback *models.InterviewFeedback) any {
		return FeedbackResponse{Success: true, Feedback: feedback}
	})(w, r)
}

func (e *CoachEndpoints) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	serve(e, UseCaseResume, e.coach.Resume, func(analysis *models.ResumeAnalysis) any {
		return ResumeResponse{Success: true, Analysis: analysis}
	})(w, r)
}
