package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/krshsl/sensai/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(models.AllModels()...)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "external_id", user.ExternalID)
	return nil
}

// GetUserByExternalID returns nil, nil when the caller has not onboarded yet.
func (r *GORMRepository) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Failed to get user by external ID", "error", err, "external_id", externalID)
		return nil, err
	}
	return &user, nil
}

// SaveOnboarding creates the user on first onboarding and overwrites the
// profile fields that were sent on later ones. The stored user is returned.
func (r *GORMRepository) SaveOnboarding(ctx context.Context, user *models.User, profile models.ProfileFields) (*models.User, error) {
	var saved models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ?", user.ExternalID).First(&saved).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = *user
			profile.Apply(&saved)
			saved.OnboardingComplete = true
			return tx.Create(&saved).Error
		case err != nil:
			return err
		}
		columns := append(profile.Apply(&saved), "onboarding_complete")
		saved.OnboardingComplete = true
		return tx.Model(&saved).Select(columns).Updates(&saved).Error
	})
	if err != nil {
		slog.Error("Failed to save onboarding", "error", err, "external_id", user.ExternalID)
		return nil, err
	}
	slog.Info("Onboarding saved", "user_id", saved.ID, "external_id", saved.ExternalID)
	return &saved, nil
}

// UpdateUserProfile overwrites the profile fields that were sent. It returns
// nil, nil if no user matches externalID.
func (r *GORMRepository) UpdateUserProfile(ctx context.Context, externalID string, profile models.ProfileFields) (*models.User, error) {
	user, err := r.GetUserByExternalID(ctx, externalID)
	if err != nil || user == nil {
		return nil, err
	}
	columns := profile.Apply(user)
	if len(columns) == 0 {
		return user, nil
	}
	if err := r.db.WithContext(ctx).Model(user).
		Select(columns).
		Updates(user).Error; err != nil {
		slog.Error("Failed to update user profile", "error", err, "user_id", user.ID)
		return nil, err
	}
	slog.Info("User profile updated", "user_id", user.ID)
	return user, nil
}

// Artifact operations
func (r *GORMRepository) CreateInterviewSession(ctx context.Context, session *models.InterviewSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create interview session", "error", err)
		return err
	}
	slog.Info("Interview session created", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

func (r *GORMRepository) GetInterviewSessions(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get interview sessions", "error", err, "user_id", userID)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) CreateResume(ctx context.Context, resume *models.Resume) error {
	if err := r.db.WithContext(ctx).Create(resume).Error; err != nil {
		slog.Error("Failed to create resume", "error", err)
		return err
	}
	slog.Info("Resume created", "resume_id", resume.ID, "user_id", resume.UserID, "ats_score", resume.ATSScore)
	return nil
}

func (r *GORMRepository) GetResumes(ctx context.Context, userID string) ([]models.Resume, error) {
	var resumes []models.Resume
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&resumes).Error
	if err != nil {
		slog.Error("Failed to get resumes", "error", err, "user_id", userID)
		return nil, err
	}
	return resumes, nil
}

func (r *GORMRepository) CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error {
	if err := r.db.WithContext(ctx).Create(letter).Error; err != nil {
		slog.Error("Failed to create cover letter", "error", err)
		return err
	}
	slog.Info("Cover letter created", "cover_letter_id", letter.ID, "user_id", letter.UserID)
	return nil
}

func (r *GORMRepository) GetCoverLetters(ctx context.Context, userID string) ([]models.CoverLetter, error) {
	var letters []models.CoverLetter
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&letters).Error
	if err != nil {
		slog.Error("Failed to get cover letters", "error", err, "user_id", userID)
		return nil, err
	}
	return letters, nil
}
