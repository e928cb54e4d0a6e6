package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/krshsl/sensai/backend/models"
	"gorm.io/datatypes"
)

const (
	defaultResumeTitle  = "My Resume"
	defaultDifficulty   = "Medium"
	persistTimeout      = 5 * time.Second
	defaultAIRequestTTL = 60 * time.Second
)

// CoachStore is the storage the coaching use cases read profiles from and
// write artifacts to
type CoachStore interface {
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	SaveExchange(ctx context.Context, userID, userMessage, reply string, at time.Time) (*models.CareerSession, error)
	CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error
	CreateInterviewSession(ctx context.Context, session *models.InterviewSession) error
	CreateResume(ctx context.Context, resume *models.Resume) error
}

type CoachOptions struct {
	Model          string
	Timeout        time.Duration
	RepairAttempts int
}

// Coach runs the coaching use cases: load profile, build prompt, complete,
// extract, persist best-effort.
type Coach struct {
	completer      Completer
	prompts        *PromptBuilder
	extractor      *Extractor
	store          CoachStore
	model          string
	timeout        time.Duration
	repairAttempts int
	now            func() time.Time
}

func NewCoach(completer Completer, prompts *PromptBuilder, extractor *Extractor, store CoachStore, opts CoachOptions) *Coach {
	if opts.Model == "" {
		opts.Model = DefaultModelName
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultAIRequestTTL
	}
	if opts.RepairAttempts < 0 {
		opts.RepairAttempts = 0
	}
	return &Coach{
		completer:      completer,
		prompts:        prompts,
		extractor:      extractor,
		store:          store,
		model:          opts.Model,
		timeout:        opts.Timeout,
		repairAttempts: opts.RepairAttempts,
		now:            time.Now,
	}
}

// loadProfile returns the caller's profile, or the default one if the caller
// has not onboarded
func (c *Coach) loadProfile(ctx context.Context, identity *Identity) (Profile, error) {
	if identity == nil {
		return Profile{}, ErrUnauthorized
	}
	user, err := c.store.GetUserByExternalID(ctx, identity.ExternalID)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return ProfileFromUser(user), nil
}

func (c *Coach) complete(ctx context.Context, prompt Prompt) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reply, err := c.completer.Complete(ctx, prompt.Request(c.model))
	if err != nil {
		slog.Error("Failed to get completion", "use_case", prompt.UseCase, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return "", &UpstreamError{UseCase: prompt.UseCase, Err: err}
	}
	slog.Info("Completion received", "use_case", prompt.UseCase, "response_length", len(reply), "duration_ms", time.Since(start).Milliseconds())
	return reply, nil
}

// runText is the pipeline for free-text use cases
func (c *Coach) runText(ctx context.Context, prompt Prompt) (string, error) {
	return c.complete(ctx, prompt)
}

// runStructured completes prompt and extracts a T from the reply. A reply
// that fails extraction is sent back with a repair instruction up to
// repairAttempts times.
func runStructured[T any](ctx context.Context, c *Coach, prompt Prompt) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		reply, err := c.complete(ctx, prompt)
		if err != nil {
			return zero, err
		}

		var out T
		err = c.extractor.Extract(prompt.UseCase, reply, &out)
		if err == nil {
			return out, nil
		}

		var extractErr *ExtractionError
		if !errors.As(err, &extractErr) {
			return zero, err
		}
		slog.Warn("Failed to extract completion", "use_case", prompt.UseCase, "attempt", attempt+1, "error", extractErr.Cause, "raw", extractErr.Raw)

		if attempt >= c.repairAttempts {
			return zero, extractErr
		}
		prompt, err = c.prompts.Repair(prompt, reply, extractErr.Cause)
		if err != nil {
			return zero, err
		}
	}
}

// persist writes an artifact best-effort. Failures are logged and never
// reach the caller. The write outlives a cancelled request.
func (c *Coach) persist(ctx context.Context, uc UseCase, profile Profile, write func(ctx context.Context) error) {
	if !profile.Present {
		slog.Warn("Skipping persistence, caller has no profile", "use_case", uc)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := write(ctx); err != nil {
		slog.Error("Failed to persist artifact", "use_case", uc, "user_id", profile.UserID, "error", err)
	}
}

// Guidance answers a career chat message
func (c *Coach) Guidance(ctx context.Context, identity *Identity, req GuidanceRequest) (string, error) {
	profile, err := c.loadProfile(ctx, identity)
	if err != nil {
		return "", err
	}
	prompt, err := c.prompts.Guidance(req, profile)
	if err != nil {
		return "", err
	}

	reply, err := c.runText(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.persist(ctx, UseCaseGuidance, profile, func(ctx context.Context) error {
		_, err := c.store.SaveExchange(ctx, profile.UserID, req.Message, reply, c.now())
		return err
	})
	return reply, nil
}

func (c *Coach) CoverLetter(ctx context.Context, identity *Identity, req CoverLetterRequest) (string, error) {
	profile, err := c.loadProfile(ctx, identity)
	if err != nil {
		return "", err
	}
	if req.Tone == "" {
		req.Tone = CoverLetterTone
	}
	prompt, err := c.prompts.CoverLetter(req, profile)
	if err != nil {
		return "", err
	}

	letter, err := c.runText(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.persist(ctx, UseCaseCoverLetter, profile, func(ctx context.Context) error {
		return c.store.CreateCoverLetter(ctx, &models.CoverLetter{
			UserID:   profile.UserID,
			JobTitle: req.JobTitle,
			Company:  req.Company,
			Content:  letter,
			Tone:     req.Tone,
		})
	})
	return letter, nil
}

// Questions generates practice questions. The result is truncated to the
// requested count and every question carries the requested difficulty.
func (c *Coach) Questions(ctx context.Context, identity *Identity, req QuestionsRequest) ([]models.InterviewQuestion, error) {
	profile, err := c.loadProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	prompt, err := c.prompts.Questions(req, profile)
	if err != nil {
		return nil, err
	}

	questions, err := runStructured[[]models.InterviewQuestion](ctx, c, prompt)
	if err != nil {
		return nil, err
	}

	if req.Count > 0 && len(questions) > req.Count {
		questions = questions[:req.Count]
	}
	for i := range questions {
		questions[i].Difficulty = req.Difficulty
	}
	return questions, nil
}

// Insights is transient and never persisted
func (c *Coach) Insights(ctx context.Context, identity *Identity, req InsightsRequest) (*models.IndustryInsights, error) {
	profile, err := c.loadProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	prompt, err := c.prompts.Insights(req, profile)
	if err != nil {
		return nil, err
	}

	insights, err := runStructured[models.IndustryInsights](ctx, c, prompt)
	if err != nil {
		return nil, err
	}
	return &insights, nil
}

func (c *Coach) Feedback(ctx context.Context, identity *Identity, req FeedbackRequest) (*models.InterviewFeedback, error) {
	profile, err := c.loadProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	prompt, err := c.prompts.Feedback(req)
	if err != nil {
		return nil, err
	}

	feedback, err := runStructured[models.InterviewFeedback](ctx, c, prompt)
	if err != nil {
		return nil, err
	}
	feedback.Score = clampScore(feedback.Score)

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = defaultDifficulty
	}
	c.persist(ctx, UseCaseFeedback, profile, func(ctx context.Context) error {
		return c.store.CreateInterviewSession(ctx, &models.InterviewSession{
			UserID:       profile.UserID,
			Question:     req.Question,
			UserAnswer:   req.Answer,
			AIFeedback:   feedback.DetailedFeedback,
			Score:        feedback.Score,
			Strengths:    feedback.Strengths,
			Improvements: feedback.Improvements,
			Category:     req.Category,
			Difficulty:   difficulty,
		})
	})
	return &feedback, nil
}

// Resume reviews a draft for ATS fit and stores the draft with its score
func (c *Coach) Resume(ctx context.Context, identity *Identity, req ResumeRequest) (*models.ResumeAnalysis, error) {
	profile, err := c.loadProfile(ctx, identity)
	if err != nil {
		return nil, err
	}
	if req.ResumeData == nil {
		return nil, &ValidationError{Message: "resumeData is required"}
	}
	draft := *req.ResumeData

	prompt, err := c.prompts.Resume(draft, profile)
	if err != nil {
		return nil, err
	}

	analysis, err := runStructured[models.ResumeAnalysis](ctx, c, prompt)
	if err != nil {
		return nil, err
	}
	analysis.ATSScore = clampScore(analysis.ATSScore)

	c.persist(ctx, UseCaseResume, profile, func(ctx context.Context) error {
		content, err := json.Marshal(draft)
		if err != nil {
			return fmt.Errorf("failed to encode resume draft: %w", err)
		}
		title := draft.Title
		if title == "" {
			title = defaultResumeTitle
		}
		return c.store.CreateResume(ctx, &models.Resume{
			UserID:     profile.UserID,
			Title:      title,
			TargetRole: draft.TargetRole,
			Content:    datatypes.JSON(content),
			ATSScore:   analysis.ATSScore,
		})
	})
	return &analysis, nil
}

func clampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
