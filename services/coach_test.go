package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/krshsl/sensai/backend/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testIdentity = &Identity{ExternalID: "ext-1", Email: "ada@example.com"}

func TestCoach_RequiresIdentity(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"hi"}}
	store := newFakeStore()
	coach := newTestCoach(t, completer, store)

	_, err := coach.Guidance(context.Background(), nil, GuidanceRequest{Message: "hello"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 0, completer.calls())
	assert.Equal(t, 0, store.callCount())
}

func TestCoach_ProfileLookupFailure(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"hi"}}
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	coach := newTestCoach(t, completer, store)

	_, err := coach.Guidance(context.Background(), testIdentity, GuidanceRequest{Message: "hello"})
	require.Error(t, err)
	assert.Equal(t, 500, HTTPStatus(err))
	assert.Equal(t, 0, completer.calls())
}

func TestCoach_Guidance(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Learn Go."}}
	store := newFakeStore()
	store.addUser(onboardedUser(testIdentity.ExternalID))
	coach := newTestCoach(t, completer, store)

	reply, err := coach.Guidance(context.Background(), testIdentity, GuidanceRequest{Message: "What next?"})
	require.NoError(t, err)
	assert.Equal(t, "Learn Go.", reply)

	req := completer.lastRequest()
	assert.Equal(t, DefaultModelName, req.Model)
	assert.Contains(t, req.System, "- Industry: Finance")

	require.Len(t, store.exchanges, 1)
	assert.Equal(t, models.CareerExchange{User: "What next?", Assistant: "Learn Go.", Timestamp: "2025-01-02T03:04:05Z"}, store.exchanges[0])
}

func TestCoach_NoProfileSkipsPersistence(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Dear Hiring Manager"}}
	store := newFakeStore()
	coach := newTestCoach(t, completer, store)

	letter, err := coach.CoverLetter(context.Background(), testIdentity, CoverLetterRequest{JobTitle: "Engineer", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Dear Hiring Manager", letter)
	assert.Empty(t, store.coverLetters)
	assert.Contains(t, completer.lastRequest().Messages[0].Content, "- Name: Not specified")
}

func TestCoach_PersistenceFailureDoesNotChangeResponse(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Coach) (any, error)
		want any
	}{
		{
			name: "guidance",
			run: func(c *Coach) (any, error) {
				return c.Guidance(context.Background(), testIdentity, GuidanceRequest{Message: "hi"})
			},
			want: feedbackJSON,
		},
		{
			name: "cover letter",
			run: func(c *Coach) (any, error) {
				return c.CoverLetter(context.Background(), testIdentity, CoverLetterRequest{JobTitle: "Engineer", Company: "Acme"})
			},
			want: feedbackJSON,
		},
		{
			name: "feedback",
			run: func(c *Coach) (any, error) {
				return c.Feedback(context.Background(), testIdentity, FeedbackRequest{Question: "q", Answer: "a", Category: "Behavioral"})
			},
			want: &models.InterviewFeedback{Score: 85, Strengths: []string{"clear"}, Improvements: []string{"more detail"}, DetailedFeedback: "Good answer."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore()
			store.addUser(onboardedUser(testIdentity.ExternalID))
			store.writeErr = errors.New("disk full")
			coach := newTestCoach(t, &fakeCompleter{replies: []string{feedbackJSON}}, store)

			got, err := tt.run(coach)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoach_CoverLetterDefaultsTone(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"letter"}}
	store := newFakeStore()
	store.addUser(onboardedUser(testIdentity.ExternalID))
	coach := newTestCoach(t, completer, store)

	_, err := coach.CoverLetter(context.Background(), testIdentity, CoverLetterRequest{JobTitle: "Engineer", Company: "Acme"})
	require.NoError(t, err)

	require.Len(t, store.coverLetters, 1)
	saved := store.coverLetters[0]
	assert.Equal(t, "Professional", saved.Tone)
	assert.Equal(t, "letter", saved.Content)
	assert.Equal(t, "user-"+testIdentity.ExternalID, saved.UserID)
}

func TestCoach_QuestionsTruncatesAndForcesDifficulty(t *testing.T) {
	reply := "```json\n" + `[
		{"question": "q1", "category": "Technical", "difficulty": "Hard", "tip": "t1"},
		{"question": "q2", "category": "Behavioral", "difficulty": "Medium", "tip": "t2"},
		{"question": "q3", "category": "Situational", "difficulty": "Easy", "tip": "t3"}
	]` + "\n```"
	completer := &fakeCompleter{replies: []string{reply}}
	coach := newTestCoach(t, completer, newFakeStore())

	questions, err := coach.Questions(context.Background(), testIdentity, QuestionsRequest{Count: 2, Difficulty: "Easy", Category: "Mixed"})
	require.NoError(t, err)

	require.Len(t, questions, 2)
	for _, q := range questions {
		assert.Equal(t, "Easy", q.Difficulty)
	}
	assert.Equal(t, "q2", questions[1].Question)
}

func TestCoach_InsightsNotPersisted(t *testing.T) {
	reply := `{"industry":"Finance","overview":"o","growthRate":3,"averageSalary":{"junior":1,"mid":2,"senior":3,"lead":4},"topSkills":[],"emergingRoles":[],"marketTrends":[],"challenges":[],"opportunities":[]}`
	completer := &fakeCompleter{replies: []string{reply}}
	store := newFakeStore()
	store.addUser(onboardedUser(testIdentity.ExternalID))
	coach := newTestCoach(t, completer, store)

	insights, err := coach.Insights(context.Background(), testIdentity, InsightsRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Finance", insights.Industry)
	assert.Contains(t, completer.lastRequest().Messages[0].Content, "for the Finance industry")
	assert.Equal(t, 1, store.callCount(), "only the profile lookup")
}

func TestCoach_FeedbackClampsAndPersists(t *testing.T) {
	tests := []struct {
		score string
		want  int
	}{
		{score: "150", want: 100},
		{score: "-5", want: 0},
		{score: "72", want: 72},
	}

	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			reply := `{"score": ` + tt.score + `, "strengths": ["s"], "improvements": ["i"], "detailedFeedback": "d"}`
			store := newFakeStore()
			store.addUser(onboardedUser(testIdentity.ExternalID))
			coach := newTestCoach(t, &fakeCompleter{replies: []string{reply}}, store)

			feedback, err := coach.Feedback(context.Background(), testIdentity, FeedbackRequest{Question: "q", Answer: "a", Category: "Behavioral"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, feedback.Score)

			require.Len(t, store.interviews, 1)
			saved := store.interviews[0]
			assert.Equal(t, tt.want, saved.Score)
			assert.Equal(t, "Medium", saved.Difficulty)
			assert.Equal(t, "a", saved.UserAnswer)
			assert.Equal(t, "d", saved.AIFeedback)
		})
	}
}

func TestCoach_RepairRetry(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"Sure! Here is the feedback.", feedbackJSON}}
	coach := newTestCoach(t, completer, newFakeStore())

	feedback, err := coach.Feedback(context.Background(), testIdentity, FeedbackRequest{Question: "q", Answer: "a", Category: "c"})
	require.NoError(t, err)
	assert.Equal(t, 85, feedback.Score)

	require.Equal(t, 2, completer.calls())
	repair := completer.lastRequest()
	require.Len(t, repair.Messages, 3)
	assert.Equal(t, "Sure! Here is the feedback.", repair.Messages[1].Content)
	assert.Contains(t, repair.Messages[2].Content, "invalid JSON")
}

func TestCoach_ExtractionFailureAfterRepair(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"not json"}}
	coach := newTestCoach(t, completer, newFakeStore())

	_, err := coach.Feedback(context.Background(), testIdentity, FeedbackRequest{Question: "q", Answer: "a", Category: "c"})
	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Equal(t, 2, completer.calls())
	assert.Equal(t, "Failed to parse feedback", errorMessageFor(UseCaseFeedback, err))
}

func TestCoach_UpstreamFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("quota exceeded")}
	store := newFakeStore()
	store.addUser(onboardedUser(testIdentity.ExternalID))
	coach := newTestCoach(t, completer, store)

	_, err := coach.CoverLetter(context.Background(), testIdentity, CoverLetterRequest{JobTitle: "Engineer", Company: "Acme"})
	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, UseCaseCoverLetter, upstream.UseCase)
	assert.Empty(t, store.coverLetters)
}

func TestCoach_Resume(t *testing.T) {
	reply := `{"atsScore": 120, "strengths": ["a"], "improvements": ["b"], "keywords": ["go"], "summary": "solid"}`
	store := newFakeStore()
	store.addUser(onboardedUser(testIdentity.ExternalID))
	coach := newTestCoach(t, &fakeCompleter{replies: []string{reply}}, store)

	draft := &models.ResumeDraft{Skills: "Go"}
	analysis, err := coach.Resume(context.Background(), testIdentity, ResumeRequest{ResumeData: draft})
	require.NoError(t, err)
	assert.Equal(t, 100, analysis.ATSScore)
	assert.Equal(t, []string{"go"}, analysis.Keywords)

	require.Len(t, store.resumes, 1)
	saved := store.resumes[0]
	assert.Equal(t, "My Resume", saved.Title)
	assert.Equal(t, 100, saved.ATSScore)

	var content models.ResumeDraft
	require.NoError(t, json.Unmarshal(saved.Content, &content))
	assert.Equal(t, "Go", content.Skills)
}

func TestCoach_ResumeRequiresDraft(t *testing.T) {
	completer := &fakeCompleter{replies: []string{"{}"}}
	coach := newTestCoach(t, completer, newFakeStore())

	_, err := coach.Resume(context.Background(), testIdentity, ResumeRequest{})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, 0, completer.calls())
}

func TestClampScore(t *testing.T) {
	assert.Equal(t, 0, clampScore(-1))
	assert.Equal(t, 0, clampScore(0))
	assert.Equal(t, 55, clampScore(55))
	assert.Equal(t, 100, clampScore(100))
	assert.Equal(t, 100, clampScore(101))
}
