package classify

import (
	"strings"

	"github.com/jonathan/apply-pilot/internal/types"
)

// vendorStrategy returns the ATS-specific strategy for a board, or nil when
// no vendor heuristics exist for it.
func vendorStrategy(board types.JobBoardType) Strategy {
	switch board {
	case types.BoardGreenhouse:
		return &GreenhouseStrategy{}
	case types.BoardLever:
		return &LeverStrategy{}
	case types.BoardWorkday:
		return &WorkdayStrategy{}
	default:
		return nil
	}
}

// GreenhouseStrategy knows Greenhouse's stable field identifiers
// (first_name/last_name inputs, question_* custom fields, EEO selects).
type GreenhouseStrategy struct{}

// Name implements Strategy.
func (s *GreenhouseStrategy) Name() string { return "greenhouse" }

// Classify implements Strategy.
func (s *GreenhouseStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	id := strings.ToLower(field.ID)
	name := strings.ToLower(field.Name)
	switch {
	case id == "first_name" || id == "last_name":
		return types.KindName, 0.98, true
	case id == "email":
		return types.KindEmail, 0.98, true
	case id == "phone":
		return types.KindPhone, 0.98, true
	case id == "resume" || name == "resume":
		return types.KindResumeUpload, 0.98, true
	case id == "cover_letter" || name == "cover_letter":
		return types.KindCoverLetter, 0.98, true
	case strings.HasPrefix(name, "job_application[answers_attributes]"):
		// Custom questions; the label decides whether a default answer applies.
		if kind, ok := matchPatterns(field.Label, labelPatterns); ok && isQuestionKind(kind) {
			return kind, 0.9, true
		}
		return types.KindCustomQuestion, 0.85, true
	case strings.HasPrefix(id, "job_application_gender") ||
		strings.HasPrefix(id, "job_application_race") ||
		strings.HasPrefix(id, "job_application_veteran") ||
		strings.HasPrefix(id, "job_application_disability"):
		return types.KindDemographicQuestion, 0.95, true
	}
	return types.KindUnknown, 0, false
}

// LeverStrategy knows Lever's name-attribute scheme (resume, name, email,
// phone, cards[...] custom question fields, eeo[...] selects).
type LeverStrategy struct{}

// Name implements Strategy.
func (s *LeverStrategy) Name() string { return "lever" }

// Classify implements Strategy.
func (s *LeverStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	name := strings.ToLower(field.Name)
	switch {
	case name == "name":
		return types.KindName, 0.98, true
	case name == "email":
		return types.KindEmail, 0.98, true
	case name == "phone":
		return types.KindPhone, 0.98, true
	case name == "resume":
		return types.KindResumeUpload, 0.98, true
	case name == "comments":
		return types.KindCoverLetter, 0.9, true
	case name == "location":
		return types.KindAddress, 0.9, true
	case strings.HasPrefix(name, "cards["):
		if kind, ok := matchPatterns(field.Label, labelPatterns); ok && isQuestionKind(kind) {
			return kind, 0.9, true
		}
		return types.KindCustomQuestion, 0.85, true
	case strings.HasPrefix(name, "eeo["):
		return types.KindDemographicQuestion, 0.95, true
	}
	return types.KindUnknown, 0, false
}

// WorkdayStrategy keys off Workday's data-automation-id convention, which the
// scanner folds into the ID attribute when present.
type WorkdayStrategy struct{}

// Name implements Strategy.
func (s *WorkdayStrategy) Name() string { return "workday" }

// Classify implements Strategy.
func (s *WorkdayStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	id := strings.ToLower(field.ID)
	switch {
	case strings.Contains(id, "legalnamesection"):
		return types.KindName, 0.95, true
	case strings.Contains(id, "email"):
		return types.KindEmail, 0.95, true
	case strings.Contains(id, "phone-number"), strings.Contains(id, "phonenumber"):
		return types.KindPhone, 0.95, true
	case strings.Contains(id, "addresssection"), strings.Contains(id, "countrydropdown"):
		return types.KindAddress, 0.9, true
	case strings.Contains(id, "resumeattachment"), strings.Contains(id, "file-upload"):
		return types.KindResumeUpload, 0.95, true
	case strings.Contains(id, "workexperience"):
		return types.KindWorkExperienceEntry, 0.95, true
	case strings.Contains(id, "educationsection"), strings.Contains(id, "education-"):
		return types.KindEducationEntry, 0.95, true
	case strings.Contains(id, "skillssection"):
		return types.KindSkillsEntry, 0.95, true
	}
	return types.KindUnknown, 0, false
}

// isQuestionKind reports whether a kind is one of the screening-question
// categories that may carry a stored default answer.
func isQuestionKind(kind types.FieldKind) bool {
	switch kind {
	case types.KindSponsorshipQuestion, types.KindSalaryQuestion, types.KindDemographicQuestion, types.KindCustomQuestion:
		return true
	}
	return false
}
