// Package types provides type definitions for structured data used throughout the apply-pilot system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// QuestionCategory identifies a known screening-question category with a stored default answer.
type QuestionCategory string

const (
	// QuestionSponsorship covers visa/work-authorization sponsorship questions
	QuestionSponsorship QuestionCategory = "sponsorship"
	// QuestionSalary covers salary expectation questions
	QuestionSalary QuestionCategory = "salary"
	// QuestionDemographic covers EEO/demographic survey questions
	QuestionDemographic QuestionCategory = "demographic"
)

// ApplicantProfile is the per-run snapshot of everything we know about the applicant.
// It is resolved once by a profile provider at run start and treated as read-only
// for the duration of the run.
type ApplicantProfile struct {
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address,omitempty"`
	ResumePath  string `json:"resume_path,omitempty"`
	CoverLetter string `json:"cover_letter,omitempty"`

	WorkExperience []WorkExperience `json:"work_experience,omitempty"`
	Education      []Education      `json:"education,omitempty"`
	Skills         []string         `json:"skills,omitempty"`
	Projects       []Project        `json:"projects,omitempty"`

	// DefaultAnswers maps screening-question categories to stored answers.
	// A question with no default is left unanswered, never fabricated.
	DefaultAnswers map[QuestionCategory]string `json:"default_answers,omitempty"`
}

// WorkExperience represents a single position in the applicant's work history
type WorkExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
}

// Education represents a single degree or program
type Education struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	GPA       string `json:"gpa,omitempty"`
}

// Project represents a personal or professional project entry
type Project struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// DefaultAnswer returns the stored answer for a screening-question category.
// The second return is false when no default exists.
func (p *ApplicantProfile) DefaultAnswer(cat QuestionCategory) (string, bool) {
	if p.DefaultAnswers == nil {
		return "", false
	}
	answer, ok := p.DefaultAnswers[cat]
	if !ok || answer == "" {
		return "", false
	}
	return answer, true
}
