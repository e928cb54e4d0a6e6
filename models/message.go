package models

// ChatTurn is one message of a guidance conversation as supplied by the caller
type ChatTurn struct {
	Role      string `json:"role" validate:"required,oneof=user assistant"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// InterviewQuestion is a generated practice question. It is never stored.
type InterviewQuestion struct {
	Question   string `json:"question"`
	Category   string `json:"category"`   // Behavioral, Technical or Situational
	Difficulty string `json:"difficulty"` // Easy, Medium or Hard
	Tip        string `json:"tip"`
}

// InterviewFeedback is the evaluation of an answer to a practice question
type InterviewFeedback struct {
	Score            int      `json:"score"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
	DetailedFeedback string   `json:"detailedFeedback"`
}

// SalaryBands holds average salaries in USD per seniority band
type SalaryBands struct {
	Junior float64 `json:"junior"`
	Mid    float64 `json:"mid"`
	Senior float64 `json:"senior"`
	Lead   float64 `json:"lead"`
}

type SkillDemand struct {
	Name   string  `json:"name"`
	Demand float64 `json:"demand"`
}

type EmergingRole struct {
	Title  string  `json:"title"`
	Growth float64 `json:"growth"`
}

// IndustryInsights is a market snapshot for one industry. Purely transient.
type IndustryInsights struct {
	Industry      string         `json:"industry"`
	Overview      string         `json:"overview"`
	GrowthRate    float64        `json:"growthRate"`
	AverageSalary SalaryBands    `json:"averageSalary"`
	TopSkills     []SkillDemand  `json:"topSkills"`
	EmergingRoles []EmergingRole `json:"emergingRoles"`
	MarketTrends  []string       `json:"marketTrends"`
	Challenges    []string       `json:"challenges"`
	Opportunities []string       `json:"opportunities"`
}

// ResumeAnalysis is the ATS review of a resume draft
type ResumeAnalysis struct {
	ATSScore     int      `json:"atsScore"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Keywords     []string `json:"keywords"`
	Summary      string   `json:"summary"`
}

type PersonalInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
}

type ExperienceEntry struct {
	Company      string `json:"company"`
	Role         string `json:"role"`
	Duration     string `json:"duration"`
	Achievements string `json:"achievements"`
}

type EducationEntry struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Year   string `json:"year"`
}

// ResumeDraft is the resume builder payload. It is embedded in the review
// prompt verbatim and persisted as-is alongside the score.
type ResumeDraft struct {
	Title        string            `json:"title"`
	TargetRole   string            `json:"targetRole"`
	PersonalInfo PersonalInfo      `json:"personalInfo"`
	Summary      string            `json:"summary"`
	Experience   []ExperienceEntry `json:"experience"`
	Education    []EducationEntry  `json:"education"`
	Skills       string            `json:"skills"`
}
