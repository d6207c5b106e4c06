// Package fill writes applicant profile data into classified form fields and
// tracks per-section completion for the owning run.
package fill

import (
	"context"
	"log"
	"strings"

	"github.com/jonathan/apply-pilot/internal/types"
)

// Page is the subset of browser session behavior the filler needs. The live
// chromedp session satisfies it; tests inject a scripted fake.
type Page interface {
	FillText(ctx context.Context, locator, value string) error
	CurrentValue(ctx context.Context, locator string) (string, error)
	SelectOption(ctx context.Context, locator, value string) error
	UploadFile(ctx context.Context, locator, path string) error
	// ClickAddEntry triggers the "add another" control for a repeatable
	// section, reporting whether one existed.
	ClickAddEntry(ctx context.Context, section types.Section) (bool, error)
	// ScanFields rescans the page, used after a repeat control reveals a new
	// entry sub-form.
	ScanFields(ctx context.Context) ([]types.FormField, error)
}

// Filler applies profile values to classified fields. It owns the run's
// filled/total counters and section flags, and is idempotent per field:
// re-filling an already-filled field with the same profile value is a no-op.
// It never submits the form; submission belongs to the state machine.
type Filler struct {
	page    Page
	profile *types.ApplicantProfile
	rc      *types.RunContext
	verbose bool

	// filled maps locator -> value written, the idempotence ledger.
	filled map[string]string
	// seen holds every locator ever presented to FillField, filled or not.
	// Expansion rescans consult it so controls from earlier entries that the
	// profile could not fill are neither re-counted nor re-filled with a
	// later entry's data.
	seen map[string]bool
	// entryIdx tracks which profile entry each repeatable section is on.
	entryIdx map[types.Section]int
}

// New creates a filler for one run. The profile is read-only for the run's
// duration; the run context is the single place counters and flags live.
func New(page Page, profile *types.ApplicantProfile, rc *types.RunContext, verbose bool) *Filler {
	return &Filler{
		page:     page,
		profile:  profile,
		rc:       rc,
		verbose:  verbose,
		filled:   make(map[string]string),
		seen:     make(map[string]bool),
		entryIdx: make(map[types.Section]int),
	}
}

// FillField fills one classified field from the profile. It returns whether
// the field ended up filled. Unknown-kind fields are never guessed at; they
// are skipped here too so the counters stay honest even if the engine passes
// one through.
func (f *Filler) FillField(ctx context.Context, field *types.FormField) (bool, error) {
	f.seen[field.Locator] = true
	if field.Kind == types.KindUnknown {
		return false, nil
	}

	section := sectionForKind(field.Kind)
	f.markSeen(section)

	value, ok := f.valueFor(field)
	if !ok {
		// Nothing in the profile for this field: available but not filled,
		// never fabricated.
		return false, nil
	}

	if prev, done := f.filled[field.Locator]; done && prev == value {
		return true, nil
	}

	if err := f.apply(ctx, field, value); err != nil {
		return false, err
	}

	f.filled[field.Locator] = value
	f.rc.FieldsFilled++
	f.rc.MarkSection(section, types.SectionFilled)
	if f.verbose {
		log.Printf("[FILL] %s (%s) <- %s", field.Locator, field.Kind, section)
	}
	return true, nil
}

// ExpandMultiEntrySections repeats the work-experience, education and project
// sub-forms while the profile has further entries and the page offers a
// repeat control. Only controls not seen before the repeat click count as
// newly revealed; those grow both the filled and total counters.
func (f *Filler) ExpandMultiEntrySections(ctx context.Context) error {
	for _, section := range []types.Section{
		types.SectionWorkExperience,
		types.SectionEducation,
		types.SectionProjects,
	} {
		if err := f.expandSection(ctx, section); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) expandSection(ctx context.Context, section types.Section) error {
	if _, seen := f.rc.Sections[section]; !seen {
		return nil
	}
	kind := kindForSection(section)

	for f.entryIdx[section]+1 < f.entryCount(section) {
		ok, err := f.page.ClickAddEntry(ctx, section)
		if err != nil {
			return err
		}
		if !ok {
			// Page offers no further repeat control; not an error.
			return nil
		}

		fields, err := f.page.ScanFields(ctx)
		if err != nil {
			return err
		}

		f.entryIdx[section]++
		var revealed int
		for i := range fields {
			field := &fields[i]
			if f.seen[field.Locator] {
				continue
			}
			if field.Kind == types.KindUnknown {
				field.Kind = kind
			}
			if sectionForKind(field.Kind) != section {
				continue
			}
			f.rc.FieldsTotal++
			revealed++
			if _, err := f.FillField(ctx, field); err != nil {
				return err
			}
		}
		if revealed == 0 {
			// Repeat control clicked but nothing new appeared; stop looping.
			return nil
		}
	}
	return nil
}

// apply performs the environment-appropriate action for the field's control type.
func (f *Filler) apply(ctx context.Context, field *types.FormField, value string) error {
	switch {
	case field.InputType == "file":
		return f.page.UploadFile(ctx, field.Locator, value)
	case field.InputType == "select":
		if option, ok := matchOption(field.Options, value); ok {
			return f.page.SelectOption(ctx, field.Locator, option)
		}
		return f.page.SelectOption(ctx, field.Locator, value)
	default:
		// Skip typing when the page already holds the target value.
		current, err := f.page.CurrentValue(ctx, field.Locator)
		if err == nil && current == value {
			return nil
		}
		return f.page.FillText(ctx, field.Locator, value)
	}
}

// valueFor resolves the profile value for a field kind. ok=false means the
// profile has nothing suitable and the field stays unfilled.
func (f *Filler) valueFor(field *types.FormField) (string, bool) {
	p := f.profile
	switch field.Kind {
	case types.KindName:
		return nameValue(field, p.Name)
	case types.KindEmail:
		return nonEmpty(p.Email)
	case types.KindPhone:
		return nonEmpty(p.Phone)
	case types.KindAddress:
		return nonEmpty(p.Address)
	case types.KindResumeUpload:
		return nonEmpty(p.ResumePath)
	case types.KindCoverLetter:
		return nonEmpty(p.CoverLetter)
	case types.KindWorkExperienceEntry:
		idx := f.entryIdx[types.SectionWorkExperience]
		if idx >= len(p.WorkExperience) {
			return "", false
		}
		return workExperienceValue(field, p.WorkExperience[idx])
	case types.KindEducationEntry:
		idx := f.entryIdx[types.SectionEducation]
		if idx >= len(p.Education) {
			return "", false
		}
		return educationValue(field, p.Education[idx])
	case types.KindSkillsEntry:
		if len(p.Skills) == 0 {
			return "", false
		}
		return strings.Join(p.Skills, ", "), true
	case types.KindProjectEntry:
		idx := f.entryIdx[types.SectionProjects]
		if idx >= len(p.Projects) {
			return "", false
		}
		return projectValue(field, p.Projects[idx])
	case types.KindSponsorshipQuestion:
		return p.DefaultAnswer(types.QuestionSponsorship)
	case types.KindSalaryQuestion:
		return p.DefaultAnswer(types.QuestionSalary)
	case types.KindDemographicQuestion:
		return p.DefaultAnswer(types.QuestionDemographic)
	case types.KindCustomQuestion:
		// No stored default exists for free-form questions; leave unanswered.
		return "", false
	}
	return "", false
}

// entryCount returns how many profile entries exist for a repeatable section.
func (f *Filler) entryCount(section types.Section) int {
	switch section {
	case types.SectionWorkExperience:
		return len(f.profile.WorkExperience)
	case types.SectionEducation:
		return len(f.profile.Education)
	case types.SectionProjects:
		return len(f.profile.Projects)
	}
	return 0
}

// markSeen records that the form offers a section, without claiming it filled.
func (f *Filler) markSeen(section types.Section) {
	if _, ok := f.rc.Sections[section]; !ok {
		f.rc.Sections[section] = types.SectionAvailableNotFilled
	}
}

// sectionForKind maps a field kind to its form section.
func sectionForKind(kind types.FieldKind) types.Section {
	switch kind {
	case types.KindName, types.KindEmail, types.KindPhone, types.KindAddress:
		return types.SectionBasicInfo
	case types.KindResumeUpload, types.KindCoverLetter:
		return types.SectionResume
	case types.KindWorkExperienceEntry:
		return types.SectionWorkExperience
	case types.KindEducationEntry:
		return types.SectionEducation
	case types.KindSkillsEntry:
		return types.SectionSkills
	case types.KindProjectEntry:
		return types.SectionProjects
	default:
		return types.SectionQuestions
	}
}

// kindForSection is the inverse mapping for repeatable sections.
func kindForSection(section types.Section) types.FieldKind {
	switch section {
	case types.SectionWorkExperience:
		return types.KindWorkExperienceEntry
	case types.SectionEducation:
		return types.KindEducationEntry
	default:
		return types.KindProjectEntry
	}
}

// nameValue picks the right portion of the full name for first/last name fields.
func nameValue(field *types.FormField, fullName string) (string, bool) {
	if fullName == "" {
		return "", false
	}
	hint := strings.ToLower(field.Label + " " + field.Name + " " + field.ID + " " + field.Autocomplete)
	parts := strings.Fields(fullName)
	switch {
	case strings.Contains(hint, "first") || strings.Contains(hint, "given"):
		return parts[0], true
	case strings.Contains(hint, "last") || strings.Contains(hint, "family") || strings.Contains(hint, "surname"):
		return parts[len(parts)-1], true
	default:
		return fullName, true
	}
}

// workExperienceValue matches an entry field to the right work-history attribute.
func workExperienceValue(field *types.FormField, exp types.WorkExperience) (string, bool) {
	hint := strings.ToLower(field.Label + " " + field.Name + " " + field.ID)
	switch {
	case strings.Contains(hint, "title") || strings.Contains(hint, "position") || strings.Contains(hint, "role"):
		return nonEmpty(exp.Title)
	case strings.Contains(hint, "company") || strings.Contains(hint, "employer"):
		return nonEmpty(exp.Company)
	case strings.Contains(hint, "location"):
		return nonEmpty(exp.Location)
	case strings.Contains(hint, "start"):
		return nonEmpty(exp.StartDate)
	case strings.Contains(hint, "end"):
		if exp.Current {
			return "Present", true
		}
		return nonEmpty(exp.EndDate)
	case strings.Contains(hint, "description") || strings.Contains(hint, "responsibilities") || strings.Contains(hint, "duties"):
		return nonEmpty(exp.Description)
	default:
		return nonEmpty(exp.Title)
	}
}

// educationValue matches an entry field to the right education attribute.
func educationValue(field *types.FormField, edu types.Education) (string, bool) {
	hint := strings.ToLower(field.Label + " " + field.Name + " " + field.ID)
	switch {
	case strings.Contains(hint, "school") || strings.Contains(hint, "university") || strings.Contains(hint, "institution"):
		return nonEmpty(edu.School)
	case strings.Contains(hint, "degree"):
		return nonEmpty(edu.Degree)
	case strings.Contains(hint, "major") || strings.Contains(hint, "field of study") || strings.Contains(hint, "discipline"):
		return nonEmpty(edu.Field)
	case strings.Contains(hint, "gpa"):
		return nonEmpty(edu.GPA)
	case strings.Contains(hint, "start"):
		return nonEmpty(edu.StartDate)
	case strings.Contains(hint, "end") || strings.Contains(hint, "graduat"):
		return nonEmpty(edu.EndDate)
	default:
		return nonEmpty(edu.School)
	}
}

// projectValue matches an entry field to the right project attribute.
func projectValue(field *types.FormField, proj types.Project) (string, bool) {
	hint := strings.ToLower(field.Label + " " + field.Name + " " + field.ID)
	switch {
	case strings.Contains(hint, "url") || strings.Contains(hint, "link"):
		return nonEmpty(proj.URL)
	case strings.Contains(hint, "description"):
		return nonEmpty(proj.Description)
	default:
		return nonEmpty(proj.Name)
	}
}

// matchOption finds the select option whose text matches the answer,
// case-insensitively, preferring exact matches over substring ones.
func matchOption(options []string, value string) (string, bool) {
	lower := strings.ToLower(value)
	for _, opt := range options {
		if strings.ToLower(opt) == lower {
			return opt, true
		}
	}
	for _, opt := range options {
		optLower := strings.ToLower(opt)
		if strings.Contains(optLower, lower) || strings.Contains(lower, optLower) {
			return opt, true
		}
	}
	return "", false
}

func nonEmpty(value string) (string, bool) {
	return value, value != ""
}
