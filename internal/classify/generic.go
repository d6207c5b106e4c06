package classify

import (
	"strings"

	"github.com/jonathan/apply-pilot/internal/types"
)

// kindPattern associates substring patterns with a field kind. Patterns are
// checked in slice order so more specific kinds must come first.
type kindPattern struct {
	kind     types.FieldKind
	patterns []string
}

// labelPatterns drive both the label and context strategies. Order matters:
// "cover letter" must match before "name" ever gets a chance at "letter", and
// screening questions before generic text heuristics.
var labelPatterns = []kindPattern{
	{types.KindResumeUpload, []string{"resume", "cv", "curriculum vitae"}},
	{types.KindCoverLetter, []string{"cover letter", "covering letter", "motivation letter"}},
	{types.KindSponsorshipQuestion, []string{"sponsorship", "visa", "work authorization", "authorized to work", "right to work"}},
	{types.KindSalaryQuestion, []string{"salary", "compensation", "pay expectation", "desired pay"}},
	{types.KindDemographicQuestion, []string{"gender", "ethnicity", "race", "veteran", "disability", "demographic", "pronoun"}},
	{types.KindEmail, []string{"email", "e-mail"}},
	{types.KindPhone, []string{"phone", "mobile", "telephone"}},
	{types.KindAddress, []string{"address", "city", "location", "zip", "postal"}},
	{types.KindWorkExperienceEntry, []string{"work experience", "employment", "job title", "employer", "company name", "current position"}},
	{types.KindEducationEntry, []string{"education", "school", "university", "degree", "graduation", "major"}},
	{types.KindSkillsEntry, []string{"skills", "technologies", "languages and frameworks"}},
	{types.KindProjectEntry, []string{"project", "portfolio"}},
	{types.KindName, []string{"full name", "first name", "last name", "your name", "name"}},
}

func matchPatterns(text string, patterns []kindPattern) (types.FieldKind, bool) {
	if text == "" {
		return types.KindUnknown, false
	}
	lower := strings.ToLower(text)
	for _, kp := range patterns {
		for _, p := range kp.patterns {
			if strings.Contains(lower, p) {
				return kp.kind, true
			}
		}
	}
	return types.KindUnknown, false
}

// LabelStrategy matches the visible label text against known field vocabulary.
type LabelStrategy struct{}

// Name implements Strategy.
func (s *LabelStrategy) Name() string { return "label" }

// Classify implements Strategy.
func (s *LabelStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	if kind, ok := matchPatterns(field.Label, labelPatterns); ok {
		return kind, 0.85, true
	}
	return types.KindUnknown, 0, false
}

// namePatterns match raw name/id attributes, which use compact identifiers
// rather than prose.
var namePatterns = []kindPattern{
	{types.KindResumeUpload, []string{"resume", "cv_file", "cv-upload", "attachment"}},
	{types.KindCoverLetter, []string{"cover_letter", "coverletter", "cover-letter"}},
	{types.KindSponsorshipQuestion, []string{"sponsorship", "visa", "work_auth"}},
	{types.KindSalaryQuestion, []string{"salary", "compensation"}},
	{types.KindDemographicQuestion, []string{"gender", "ethnicity", "race", "veteran", "disability", "eeo"}},
	{types.KindEmail, []string{"email"}},
	{types.KindPhone, []string{"phone", "mobile", "tel"}},
	{types.KindAddress, []string{"address", "city", "zip", "postal", "location"}},
	{types.KindWorkExperienceEntry, []string{"experience", "employer", "job_title", "jobtitle", "company"}},
	{types.KindEducationEntry, []string{"education", "school", "degree", "university"}},
	{types.KindSkillsEntry, []string{"skill"}},
	{types.KindProjectEntry, []string{"project", "portfolio"}},
	{types.KindName, []string{"first_name", "last_name", "firstname", "lastname", "full_name", "fullname", "name"}},
}

// NamePatternStrategy matches name/id attributes against known identifier patterns.
type NamePatternStrategy struct{}

// Name implements Strategy.
func (s *NamePatternStrategy) Name() string { return "name_pattern" }

// Classify implements Strategy.
func (s *NamePatternStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	if kind, ok := matchPatterns(field.Name, namePatterns); ok {
		return kind, 0.75, true
	}
	if kind, ok := matchPatterns(field.ID, namePatterns); ok {
		return kind, 0.7, true
	}
	return types.KindUnknown, 0, false
}

// ContextStrategy matches surrounding text (section headings, fieldset
// legends) when the control itself carries no usable attributes. Lowest
// generic priority since context text is noisy.
type ContextStrategy struct{}

// Name implements Strategy.
func (s *ContextStrategy) Name() string { return "context" }

// Classify implements Strategy.
func (s *ContextStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	if kind, ok := matchPatterns(field.Context, labelPatterns); ok {
		return kind, 0.55, true
	}
	return types.KindUnknown, 0, false
}

// InputTypeStrategy uses the control type where it is unambiguous. A file
// input on an application form is taken as a resume upload unless the label
// strategy already said otherwise upstream.
type InputTypeStrategy struct{}

// Name implements Strategy.
func (s *InputTypeStrategy) Name() string { return "input_type" }

// Classify implements Strategy.
func (s *InputTypeStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	switch field.InputType {
	case "email":
		return types.KindEmail, 0.9, true
	case "tel":
		return types.KindPhone, 0.9, true
	case "file":
		if kind, ok := matchPatterns(field.Label+" "+field.Name, labelPatterns); ok && kind == types.KindCoverLetter {
			return types.KindCoverLetter, 0.8, true
		}
		return types.KindResumeUpload, 0.6, true
	}
	return types.KindUnknown, 0, false
}

// AutocompleteStrategy reads the autocomplete attribute, the most reliable
// signal when a site bothers to set it.
type AutocompleteStrategy struct{}

// Name implements Strategy.
func (s *AutocompleteStrategy) Name() string { return "autocomplete" }

// Classify implements Strategy.
func (s *AutocompleteStrategy) Classify(field *types.FormField) (types.FieldKind, float64, bool) {
	switch field.Autocomplete {
	case "name", "given-name", "family-name":
		return types.KindName, 0.95, true
	case "email":
		return types.KindEmail, 0.95, true
	case "tel", "tel-national":
		return types.KindPhone, 0.95, true
	case "street-address", "address-line1", "postal-code", "address-level2":
		return types.KindAddress, 0.95, true
	case "organization-title", "organization":
		return types.KindWorkExperienceEntry, 0.7, true
	}
	return types.KindUnknown, 0, false
}
