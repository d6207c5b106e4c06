package types

// FieldKind is the semantic classification of a discovered form control.
type FieldKind string

const (
	// KindName is a full-name (or first/last name) text input
	KindName FieldKind = "name"
	// KindEmail is an email address input
	KindEmail FieldKind = "email"
	// KindPhone is a phone number input
	KindPhone FieldKind = "phone"
	// KindAddress is a street address or location input
	KindAddress FieldKind = "address"
	// KindResumeUpload is a file input expecting a resume document
	KindResumeUpload FieldKind = "resume_upload"
	// KindCoverLetter is a cover letter text area or upload
	KindCoverLetter FieldKind = "cover_letter"
	// KindWorkExperienceEntry is a control belonging to a repeatable work history sub-form
	KindWorkExperienceEntry FieldKind = "work_experience_entry"
	// KindEducationEntry is a control belonging to a repeatable education sub-form
	KindEducationEntry FieldKind = "education_entry"
	// KindSkillsEntry is a skills list or tag input
	KindSkillsEntry FieldKind = "skills_entry"
	// KindProjectEntry is a control belonging to a repeatable projects sub-form
	KindProjectEntry FieldKind = "project_entry"
	// KindCustomQuestion is a free-form screening question with no stored default
	KindCustomQuestion FieldKind = "custom_question"
	// KindSponsorshipQuestion is a visa/work-authorization sponsorship question
	KindSponsorshipQuestion FieldKind = "sponsorship_question"
	// KindSalaryQuestion is a salary expectation question
	KindSalaryQuestion FieldKind = "salary_question"
	// KindDemographicQuestion is an EEO/demographic survey question
	KindDemographicQuestion FieldKind = "demographic_question"
	// KindUnknown means no classification strategy produced a confident result
	KindUnknown FieldKind = "unknown"
)

// FormField is a single discovered form control. Fields are created fresh on
// every page scan and never persisted past the run; Locator is only meaningful
// against the live page it was scanned from.
type FormField struct {
	// Locator is an opaque handle (CSS selector) into the live page.
	Locator string `json:"locator"`
	// Label is the visible label or hint text associated with the control.
	Label string `json:"label,omitempty"`
	// Name and ID are the raw name/id attributes.
	Name string `json:"field_name,omitempty"`
	ID   string `json:"field_id,omitempty"`
	// InputType is the control type (text, email, file, select, textarea, ...).
	InputType string `json:"input_type,omitempty"`
	// Autocomplete is the autocomplete attribute when present.
	Autocomplete string `json:"autocomplete,omitempty"`
	// Context is nearby text (section heading, fieldset legend) captured at scan time.
	Context string `json:"context,omitempty"`
	// Required reports whether the control is marked required.
	Required bool `json:"required,omitempty"`
	// Options holds the option values for select-style controls.
	Options []string `json:"options,omitempty"`

	// Kind and Confidence are assigned by the classifier.
	Kind       FieldKind `json:"kind"`
	Confidence float64   `json:"confidence"`
}

// FormComplexity buckets a form by its total field count.
type FormComplexity string

const (
	// ComplexitySimple is a form with fewer than 10 fields
	ComplexitySimple FormComplexity = "simple"
	// ComplexityMedium is a form with 10 to 20 fields
	ComplexityMedium FormComplexity = "medium"
	// ComplexityComplex is a form with more than 20 fields
	ComplexityComplex FormComplexity = "complex"
)

// ComplexityForCount maps a field count to its complexity bucket.
// The bucket is a pure function of the count at discovery time.
func ComplexityForCount(count int) FormComplexity {
	switch {
	case count < 10:
		return ComplexitySimple
	case count <= 20:
		return ComplexityMedium
	default:
		return ComplexityComplex
	}
}

// FormSnapshot is the ordered set of controls discovered in one page scan,
// with the complexity bucket computed exactly once at construction.
type FormSnapshot struct {
	Fields     []FormField    `json:"fields"`
	Complexity FormComplexity `json:"complexity"`
}

// NewFormSnapshot builds a snapshot from discovered fields, computing the
// complexity bucket from the field count. The bucket is never recomputed,
// even after fields are filled.
func NewFormSnapshot(fields []FormField) *FormSnapshot {
	return &FormSnapshot{
		Fields:     fields,
		Complexity: ComplexityForCount(len(fields)),
	}
}
