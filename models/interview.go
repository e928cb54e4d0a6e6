package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CareerSession stores one guidance exchange as a JSON blob. Successive
// exchanges are independent rows; ordering is whatever the caller supplied.
type CareerSession struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"userId"`
	Messages  datatypes.JSON `gorm:"type:jsonb;not null" json:"messages"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CareerExchange is the shape written into CareerSession.Messages.
type CareerExchange struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
	Timestamp string `json:"timestamp"`
}

// InterviewSession records the feedback on one answered practice question
type InterviewSession struct {
	ID           string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID       string         `gorm:"type:uuid;not null;index" json:"userId"`
	Question     string         `gorm:"type:text;not null" json:"question"`
	UserAnswer   string         `gorm:"type:text;not null" json:"userAnswer"`
	AIFeedback   string         `gorm:"type:text" json:"aiFeedback"`
	Score        int            `json:"score"` // 0 to 100
	Strengths    pq.StringArray `gorm:"type:text[]" json:"strengths"`
	Improvements pq.StringArray `gorm:"type:text[]" json:"improvements"`
	Category     string         `gorm:"size:50" json:"category"`
	Difficulty   string         `gorm:"size:20" json:"difficulty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Resume is a submitted resume draft together with the ATS score it received
type Resume struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID     string         `gorm:"type:uuid;not null;index" json:"userId"`
	Title      string         `gorm:"size:255;not null" json:"title"`
	TargetRole string         `gorm:"size:255" json:"targetRole"`
	Content    datatypes.JSON `gorm:"type:jsonb;not null" json:"content"`
	ATSScore   int            `json:"atsScore"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// CoverLetter is a generated letter persisted verbatim
type CoverLetter struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"userId"`
	JobTitle  string         `gorm:"size:255;not null" json:"jobTitle"`
	Company   string         `gorm:"size:255;not null" json:"company"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Tone      string         `gorm:"size:50" json:"tone"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
