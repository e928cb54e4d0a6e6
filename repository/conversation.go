package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/krshsl/sensai/backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// encodeExchange renders one exchange as the {user, assistant, timestamp}
// object stored in the messages column
func encodeExchange(userMessage, reply string, at time.Time) (datatypes.JSON, error) {
	payload, err := json.Marshal(models.CareerExchange{
		User:      userMessage,
		Assistant: reply,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange: %w", err)
	}
	return datatypes.JSON(payload), nil
}

// SaveExchange stores one guidance exchange as its own career session row
func (r *ConversationRepository) SaveExchange(ctx context.Context, userID, userMessage, reply string, at time.Time) (*models.CareerSession, error) {
	messages, err := encodeExchange(userMessage, reply, at)
	if err != nil {
		return nil, err
	}

	session := &models.CareerSession{
		UserID:   userID,
		Messages: messages,
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to save career session", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to save career session: %w", err)
	}

	slog.Info("Career session saved", "session_id", session.ID, "user_id", userID)
	return session, nil
}

// GetCareerSessions retrieves a user's guidance history, newest first
func (r *ConversationRepository) GetCareerSessions(ctx context.Context, userID string, limit int) ([]models.CareerSession, error) {
	var sessions []models.CareerSession

	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&sessions).Error; err != nil {
		slog.Error("Failed to get career sessions", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get career sessions: %w", err)
	}

	slog.Debug("Career sessions retrieved", "user_id", userID, "count", len(sessions))
	return sessions, nil
}
