package types

import (
	"fmt"
	"time"
)

// Section identifies a logical area of an application form.
type Section string

const (
	// SectionBasicInfo covers name/email/phone/address fields
	SectionBasicInfo Section = "basic_info"
	// SectionResume covers the resume upload
	SectionResume Section = "resume"
	// SectionWorkExperience covers the repeatable work history sub-form
	SectionWorkExperience Section = "work_experience"
	// SectionEducation covers the repeatable education sub-form
	SectionEducation Section = "education"
	// SectionSkills covers skills inputs
	SectionSkills Section = "skills"
	// SectionProjects covers the repeatable projects sub-form
	SectionProjects Section = "projects"
	// SectionQuestions covers custom and screening questions
	SectionQuestions Section = "questions"
)

// SectionStatus describes how far a form section got during filling.
type SectionStatus string

const (
	// SectionNotPresent means the form offered no such section
	SectionNotPresent SectionStatus = "not_present"
	// SectionAvailableNotFilled means the form offered the section but the
	// profile had nothing to fill it with. This is not an error.
	SectionAvailableNotFilled SectionStatus = "available_not_filled"
	// SectionPartiallyFilled means some but not all controls in the section were filled
	SectionPartiallyFilled SectionStatus = "partially_filled"
	// SectionFilled means every fillable control in the section was filled
	SectionFilled SectionStatus = "filled"
)

// RunContext is the mutable per-job state for one run of the engine.
// It is created at run start, written only by the state machine and the
// components it delegates to, and finalized into an Outcome at run end.
type RunContext struct {
	JobURL string       `json:"job_url"`
	Board  JobBoardType `json:"board"`

	LoginRequired    bool `json:"login_required"`
	CaptchaSeen      bool `json:"captcha_seen"`
	PopupSeen        bool `json:"popup_seen"`
	PopupResolved    bool `json:"popup_resolved"`
	ExternalRedirect bool `json:"external_redirect"`

	Snapshot *FormSnapshot `json:"snapshot,omitempty"`

	Sections     map[Section]SectionStatus `json:"sections"`
	FieldsFilled int                       `json:"fields_filled"`
	FieldsTotal  int                       `json:"fields_total"`

	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Errors []string `json:"errors,omitempty"`
}

// NewRunContext creates the context for a fresh run.
func NewRunContext(jobURL string) *RunContext {
	return &RunContext{
		JobURL:    jobURL,
		Board:     BoardOtherATS,
		Sections:  make(map[Section]SectionStatus),
		StartedAt: time.Now(),
	}
}

// RecordError appends a human-readable error message to the run's error list.
func (rc *RunContext) RecordError(format string, args ...any) {
	rc.Errors = append(rc.Errors, fmt.Sprintf(format, args...))
}

// MarkSection sets a section status. Upgrades only: a section already marked
// filled is never downgraded by a later partial observation.
func (rc *RunContext) MarkSection(s Section, status SectionStatus) {
	if rc.Sections[s] == SectionFilled && status != SectionFilled {
		return
	}
	rc.Sections[s] = status
}

// FilledRatio reports the filled/total progress as "14/15" alongside the
// numeric ratio. A form with zero fields reports "0/0" and ratio 0.
func (rc *RunContext) FilledRatio() (string, float64) {
	display := fmt.Sprintf("%d/%d", rc.FieldsFilled, rc.FieldsTotal)
	if rc.FieldsTotal == 0 {
		return display, 0
	}
	return display, float64(rc.FieldsFilled) / float64(rc.FieldsTotal)
}
