package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// Stored models:
// - User, ProfileFields from user.go
// - CareerSession, InterviewSession, Resume, CoverLetter from interview.go
//
// Transient contracts exchanged with the completion service live in message.go.

// Database schema overview:
// 1. users - Career profiles keyed by the auth provider's subject (external_id)
// 2. career_sessions - One guidance exchange per row, stored as jsonb
// 3. interview_sessions - Feedback on an answered practice question
// 4. resumes - Submitted resume drafts with their ATS score
// 5. cover_letters - Generated cover letters

// AllModels lists every table the repository migrates.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&CareerSession{},
		&InterviewSession{},
		&Resume{},
		&CoverLetter{},
	}
}
