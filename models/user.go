package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is the career profile of an authenticated caller. ExternalID is the
// subject issued by the auth provider; ID is the internal key artifacts hang off.
type User struct {
	ID                 string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ExternalID         string         `gorm:"uniqueIndex;not null" json:"externalId"`
	Email              string         `gorm:"size:255" json:"email"`
	FirstName          string         `gorm:"size:255" json:"firstName"`
	LastName           string         `gorm:"size:255" json:"lastName"`
	ImageURL           string         `gorm:"size:500" json:"imageUrl"`
	Industry           *string        `gorm:"size:100" json:"industry"`
	CurrentRole        *string        `gorm:"size:255" json:"currentRole"`
	ExperienceLevel    *string        `gorm:"size:100" json:"experienceLevel"`
	CareerGoals        pq.StringArray `gorm:"type:text[]" json:"careerGoals"`
	Skills             pq.StringArray `gorm:"type:text[]" json:"skills"`
	OnboardingComplete bool           `gorm:"default:false" json:"onboardingComplete"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	CareerSessions    []CareerSession    `gorm:"foreignKey:UserID" json:"-"`
	InterviewSessions []InterviewSession `gorm:"foreignKey:UserID" json:"-"`
	Resumes           []Resume           `gorm:"foreignKey:UserID" json:"-"`
	CoverLetters      []CoverLetter      `gorm:"foreignKey:UserID" json:"-"`
}

// ProfileFields are the user-editable parts of a profile, shared by the
// onboarding and settings flows. A nil field was absent from the request and
// leaves the stored value alone.
type ProfileFields struct {
	Industry        *string   `json:"industry" validate:"omitempty,max=100"`
	CurrentRole     *string   `json:"currentRole" validate:"omitempty,max=255"`
	ExperienceLevel *string   `json:"experienceLevel" validate:"omitempty,max=100"`
	CareerGoals     *[]string `json:"careerGoals" validate:"omitempty,max=20,dive,max=500"`
	Skills          *[]string `json:"skills" validate:"omitempty,max=50,dive,max=100"`
}

// Apply copies the fields that were sent onto the user and returns their
// column names. Array columns are never left nil.
func (f ProfileFields) Apply(u *User) []string {
	var columns []string
	if f.Industry != nil {
		u.Industry = f.Industry
		columns = append(columns, "industry")
	}
	if f.CurrentRole != nil {
		u.CurrentRole = f.CurrentRole
		columns = append(columns, "current_role")
	}
	if f.ExperienceLevel != nil {
		u.ExperienceLevel = f.ExperienceLevel
		columns = append(columns, "experience_level")
	}
	if f.CareerGoals != nil {
		u.CareerGoals = append(pq.StringArray{}, *f.CareerGoals...)
		columns = append(columns, "career_goals")
	}
	if f.Skills != nil {
		u.Skills = append(pq.StringArray{}, *f.Skills...)
		columns = append(columns, "skills")
	}

	if u.CareerGoals == nil {
		u.CareerGoals = pq.StringArray{}
	}
	if u.Skills == nil {
		u.Skills = pq.StringArray{}
	}
	return columns
}
