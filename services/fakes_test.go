package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/krshsl/sensai/backend/models"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// fakeCompleter replays canned replies in order. The last reply repeats.
type fakeCompleter struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no reply configured")
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeCompleter) lastRequest() CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// fakeStore is an in-memory ServerStore
type fakeStore struct {
	mu sync.Mutex

	users    map[string]*models.User
	getErr   error
	writeErr error

	exchanges    []models.CareerExchange
	coverLetters []models.CoverLetter
	interviews   []models.InterviewSession
	resumes      []models.Resume
	calls        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*models.User)}
}

func (s *fakeStore) addUser(u *models.User) *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ExternalID] = u
	return u
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) GetUserByExternalID(_ context.Context, externalID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.users[externalID], nil
}

func (s *fakeStore) SaveExchange(_ context.Context, userID, userMessage, reply string, at time.Time) (*models.CareerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	s.exchanges = append(s.exchanges, models.CareerExchange{User: userMessage, Assistant: reply, Timestamp: at.Format(time.RFC3339Nano)})
	return &models.CareerSession{UserID: userID}, nil
}

func (s *fakeStore) CreateCoverLetter(_ context.Context, letter *models.CoverLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.coverLetters = append(s.coverLetters, *letter)
	return nil
}

func (s *fakeStore) CreateInterviewSession(_ context.Context, session *models.InterviewSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.interviews = append(s.interviews, *session)
	return nil
}

func (s *fakeStore) CreateResume(_ context.Context, resume *models.Resume) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.resumes = append(s.resumes, *resume)
	return nil
}

func (s *fakeStore) SaveOnboarding(_ context.Context, user *models.User, profile models.ProfileFields) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	saved, ok := s.users[user.ExternalID]
	if !ok {
		copied := *user
		copied.ID = "user-" + user.ExternalID
		saved = &copied
		s.users[user.ExternalID] = saved
	}
	profile.Apply(saved)
	saved.OnboardingComplete = true
	return saved, nil
}

func (s *fakeStore) UpdateUserProfile(_ context.Context, externalID string, profile models.ProfileFields) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	saved, ok := s.users[externalID]
	if !ok {
		return nil, nil
	}
	profile.Apply(saved)
	return saved, nil
}

func (s *fakeStore) GetCoverLetters(_ context.Context, userID string) ([]models.CoverLetter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.coverLetters, nil
}

func (s *fakeStore) GetResumes(_ context.Context, userID string) ([]models.Resume, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.resumes, nil
}

func (s *fakeStore) GetInterviewSessions(_ context.Context, userID string) ([]models.InterviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.interviews, nil
}

func (s *fakeStore) GetCareerSessions(_ context.Context, userID string, limit int) ([]models.CareerSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return []models.CareerSession{{UserID: userID}}, nil
}

func strPtr(s string) *string {
	return &s
}

// onboardedUser is a fully populated profile
func onboardedUser(externalID string) *models.User {
	return &models.User{
		ID:              "user-" + externalID,
		ExternalID:      externalID,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Industry:        strPtr("Finance"),
		CurrentRole:     strPtr("Data Analyst"),
		ExperienceLevel: strPtr("Senior"),
		CareerGoals:     pq.StringArray{"Lead a team"},
		Skills:          pq.StringArray{"SQL", "Python"},
	}
}

func newTestCoach(t *testing.T, completer Completer, store CoachStore) *Coach {
	t.Helper()
	prompts, err := NewPromptBuilder()
	require.NoError(t, err)
	extractor, err := NewExtractor()
	require.NoError(t, err)
	coach := NewCoach(completer, prompts, extractor, store, CoachOptions{Timeout: 5 * time.Second, RepairAttempts: 1})
	coach.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return coach
}
