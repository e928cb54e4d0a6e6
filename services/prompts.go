package services

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/krshsl/sensai/backend/models"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/catalog.yaml
var promptFS embed.FS

// UseCase identifies one of the coaching request types
type UseCase string

const (
	UseCaseGuidance    UseCase = "career-guidance"
	UseCaseCoverLetter UseCase = "cover-letter"
	UseCaseQuestions   UseCase = "interview-questions"
	UseCaseInsights    UseCase = "industry-insights"
	UseCaseFeedback    UseCase = "interview-feedback"
	UseCaseResume      UseCase = "resume-review"
)

// UseCases lists every use case in a stable order
var UseCases = []UseCase{
	UseCaseGuidance,
	UseCaseCoverLetter,
	UseCaseQuestions,
	UseCaseInsights,
	UseCaseFeedback,
	UseCaseResume,
}

const (
	notSpecified    = "Not specified"
	defaultIndustry = "Technology"
	mixedCategory   = "Mixed"
)

// Profile is the optional profile snapshot prompts are built from. The zero
// value is the absent profile.
type Profile struct {
	Present         bool
	UserID          string
	FirstName       string
	LastName        string
	Industry        string
	CurrentRole     string
	ExperienceLevel string
	CareerGoals     []string
	Skills          []string
}

// DefaultProfile is used when the caller has not onboarded
func DefaultProfile() Profile {
	return Profile{}
}

// ProfileFromUser snapshots a stored user; nil yields DefaultProfile.
func ProfileFromUser(u *models.User) Profile {
	if u == nil {
		return DefaultProfile()
	}
	return Profile{
		Present:         true,
		UserID:          u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Industry:        deref(u.Industry),
		CurrentRole:     deref(u.CurrentRole),
		ExperienceLevel: deref(u.ExperienceLevel),
		CareerGoals:     []string(u.CareerGoals),
		Skills:          []string(u.Skills),
	}
}

// Name is "First Last" or empty if neither is set
func (p Profile) Name() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func joinOr(values []string, fallback string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, ", ")
}

// Request payloads

type GuidanceRequest struct {
	Message             string            `json:"message" validate:"required"`
	ConversationHistory []models.ChatTurn `json:"conversationHistory" validate:"dive"`
}

type CoverLetterRequest struct {
	JobTitle       string `json:"jobTitle" validate:"required"`
	Company        string `json:"company" validate:"required"`
	JobDescription string `json:"jobDescription"`
	Tone           string `json:"tone" validate:"omitempty,oneof=Professional Enthusiastic Formal Creative"`
}

type QuestionsRequest struct {
	Count      int    `json:"count" validate:"required,min=1,max=20"`
	Difficulty string `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Category   string `json:"category" validate:"required,oneof=Behavioral Technical Situational Mixed"`
}

type InsightsRequest struct {
	Industry string `json:"industry"`
}

type FeedbackRequest struct {
	Question   string `json:"question" validate:"required"`
	Answer     string `json:"answer" validate:"required"`
	Category   string `json:"category" validate:"required"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=Easy Medium Hard"`
}

type ResumeRequest struct {
	ResumeData *models.ResumeDraft `json:"resumeData" validate:"required"`
}

// Prompt is a fully rendered completion contract for one use case
type Prompt struct {
	UseCase     UseCase
	System      string
	Messages    []models.ChatTurn
	Temperature float32
	MaxTokens   int32
	ExpectsJSON bool
}

// Request turns the prompt into a completion request for model
func (p Prompt) Request(model string) CompletionRequest {
	messages := make([]models.ChatTurn, len(p.Messages))
	copy(messages, p.Messages)
	return CompletionRequest{
		Model:       model,
		System:      p.System,
		Messages:    messages,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
	}
}

// UserText is the last user message of the prompt
func (p Prompt) UserText() string {
	for i := len(p.Messages) - 1; i >= 0; i-- {
		if p.Messages[i].Role == RoleUser {
			return p.Messages[i].Content
		}
	}
	return ""
}

type promptCatalog struct {
	Repair   string                        `yaml:"repair"`
	UseCases map[string]promptTemplateSpec `yaml:"use_cases"`
}

type promptTemplateSpec struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int32   `yaml:"max_tokens"`
	JSON        bool    `yaml:"json"`
	System      string  `yaml:"system"`
	User        string  `yaml:"user"`
}

type promptTemplate struct {
	spec   promptTemplateSpec
	system *template.Template
	user   *template.Template
}

// PromptBuilder renders deterministic prompts from the embedded catalog
type PromptBuilder struct {
	templates map[UseCase]*promptTemplate
	repair    *template.Template
}

// NewPromptBuilder parses the embedded prompt catalog
func NewPromptBuilder() (*PromptBuilder, error) {
	data, err := promptFS.ReadFile("prompts/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog: %w", err)
	}
	return ParsePromptCatalog(data)
}

// ParsePromptCatalog builds a PromptBuilder from catalog YAML. Every use case
// must be present.
func ParsePromptCatalog(data []byte) (*PromptBuilder, error) {
	var catalog promptCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	b := &PromptBuilder{templates: make(map[UseCase]*promptTemplate, len(UseCases))}

	repair, err := template.New("repair").Option("missingkey=error").Parse(catalog.Repair)
	if err != nil {
		return nil, fmt.Errorf("failed to parse repair template: %w", err)
	}
	b.repair = repair

	for _, uc := range UseCases {
		spec, ok := catalog.UseCases[string(uc)]
		if !ok {
			return nil, fmt.Errorf("prompt catalog is missing use case %q", uc)
		}
		if spec.MaxTokens <= 0 {
			return nil, fmt.Errorf("use case %q: max_tokens must be positive", uc)
		}
		system, err := template.New(string(uc) + ".system").Option("missingkey=error").Parse(spec.System)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s system template: %w", uc, err)
		}
		user, err := template.New(string(uc) + ".user").Option("missingkey=error").Parse(spec.User)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s user template: %w", uc, err)
		}
		b.templates[uc] = &promptTemplate{spec: spec, system: system, user: user}
	}

	return b, nil
}

func (b *PromptBuilder) render(uc UseCase, data any, history []models.ChatTurn) (Prompt, error) {
	tmpl, ok := b.templates[uc]
	if !ok {
		return Prompt{}, fmt.Errorf("unknown use case %q", uc)
	}

	var system, user bytes.Buffer
	if err := tmpl.system.Execute(&system, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render %s system prompt: %w", uc, err)
	}
	if err := tmpl.user.Execute(&user, data); err != nil {
		return Prompt{}, fmt.Errorf("failed to render %s user prompt: %w", uc, err)
	}

	messages := make([]models.ChatTurn, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, models.ChatTurn{Role: RoleUser, Content: user.String()})

	return Prompt{
		UseCase:     uc,
		System:      system.String(),
		Messages:    messages,
		Temperature: tmpl.spec.Temperature,
		MaxTokens:   tmpl.spec.MaxTokens,
		ExpectsJSON: tmpl.spec.JSON,
	}, nil
}

// Guidance builds the career chat prompt. History is replayed verbatim
// between the system instruction and the new message.
func (b *PromptBuilder) Guidance(req GuidanceRequest, p Profile) (Prompt, error) {
	data := struct {
		Industry        string
		CurrentRole     string
		ExperienceLevel string
		CareerGoals     string
		Skills          string
		Message         string
	}{
		Industry:        orDefault(p.Industry, notSpecified),
		CurrentRole:     orDefault(p.CurrentRole, notSpecified),
		ExperienceLevel: orDefault(p.ExperienceLevel, notSpecified),
		CareerGoals:     joinOr(p.CareerGoals, notSpecified),
		Skills:          joinOr(p.Skills, notSpecified),
		Message:         req.Message,
	}
	return b.render(UseCaseGuidance, data, req.ConversationHistory)
}

// CoverLetterTone is the tone used when the request names none
const CoverLetterTone = "Professional"

func (b *PromptBuilder) CoverLetter(req CoverLetterRequest, p Profile) (Prompt, error) {
	data := struct {
		JobTitle        string
		Company         string
		JobDescription  string
		Tone            string
		Name            string
		CurrentRole     string
		Industry        string
		ExperienceLevel string
		Skills          string
		CareerGoals     string
	}{
		JobTitle:        req.JobTitle,
		Company:         req.Company,
		JobDescription:  orDefault(req.JobDescription, "Not provided"),
		Tone:            orDefault(req.Tone, CoverLetterTone),
		Name:            orDefault(p.Name(), notSpecified),
		CurrentRole:     orDefault(p.CurrentRole, "Professional"),
		Industry:        orDefault(p.Industry, "General"),
		ExperienceLevel: orDefault(p.ExperienceLevel, "Mid-Level"),
		Skills:          joinOr(p.Skills, "Various professional skills"),
		CareerGoals:     joinOr(p.CareerGoals, "Career advancement"),
	}
	return b.render(UseCaseCoverLetter, data, nil)
}

func (b *PromptBuilder) Questions(req QuestionsRequest, p Profile) (Prompt, error) {
	category := req.Category
	if category == mixedCategory {
		category = "Mix of behavioral, technical, and situational"
	}
	data := struct {
		Count           int
		Difficulty      string
		Category        string
		CurrentRole     string
		Industry        string
		ExperienceLevel string
	}{
		Count:           req.Count,
		Difficulty:      req.Difficulty,
		Category:        category,
		CurrentRole:     orDefault(p.CurrentRole, "professional"),
		Industry:        orDefault(p.Industry, "general"),
		ExperienceLevel: orDefault(p.ExperienceLevel, "general professional"),
	}
	return b.render(UseCaseQuestions, data, nil)
}

// InsightsIndustry resolves the target industry: request, then profile, then
// Technology.
func InsightsIndustry(req InsightsRequest, p Profile) string {
	return orDefault(req.Industry, orDefault(p.Industry, defaultIndustry))
}

func (b *PromptBuilder) Insights(req InsightsRequest, p Profile) (Prompt, error) {
	data := struct{ Industry string }{Industry: InsightsIndustry(req, p)}
	return b.render(UseCaseInsights, data, nil)
}

// Feedback uses no profile fields
func (b *PromptBuilder) Feedback(req FeedbackRequest) (Prompt, error) {
	data := struct{ Question, Category, Answer string }{
		Question: req.Question,
		Category: req.Category,
		Answer:   req.Answer,
	}
	return b.render(UseCaseFeedback, data, nil)
}

func (b *PromptBuilder) Resume(draft models.ResumeDraft, p Profile) (Prompt, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(draft); err != nil {
		return Prompt{}, fmt.Errorf("failed to encode resume draft: %w", err)
	}

	data := struct{ ResumeJSON, TargetRole, Industry string }{
		ResumeJSON: strings.TrimRight(buf.String(), "\n"),
		TargetRole: orDefault(draft.TargetRole, notSpecified),
		Industry:   orDefault(p.Industry, "General"),
	}
	return b.render(UseCaseResume, data, nil)
}

// Repair extends prompt with the rejected reply and a stricter instruction
func (b *PromptBuilder) Repair(prompt Prompt, reply string, problem error) (Prompt, error) {
	var buf bytes.Buffer
	if err := b.repair.Execute(&buf, struct{ Problem string }{Problem: problem.Error()}); err != nil {
		return Prompt{}, fmt.Errorf("failed to render repair prompt: %w", err)
	}

	repaired := prompt
	repaired.Messages = make([]models.ChatTurn, 0, len(prompt.Messages)+2)
	repaired.Messages = append(repaired.Messages, prompt.Messages...)
	repaired.Messages = append(repaired.Messages,
		models.ChatTurn{Role: RoleAssistant, Content: reply},
		models.ChatTurn{Role: RoleUser, Content: buf.String()},
	)
	return repaired, nil
}
