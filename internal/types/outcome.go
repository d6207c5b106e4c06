package types

// FinalStatus is the terminal classification of one run.
type FinalStatus string

const (
	// StatusAutoSubmitted means the engine submitted the application itself
	StatusAutoSubmitted FinalStatus = "auto_submitted"
	// StatusStoppedBeforeSubmit means the engine filled the form and halted
	// before the platform's final submission action for human confirmation
	StatusStoppedBeforeSubmit FinalStatus = "stopped_before_submit"
	// StatusPartialUserActionNeeded means filling was incomplete and a human
	// must finish the application
	StatusPartialUserActionNeeded FinalStatus = "partial_user_action_needed"
	// StatusFailed means the run hit a terminal failure
	StatusFailed FinalStatus = "failed"
)

// FailurePoint locates where a failed run went wrong.
type FailurePoint string

const (
	// FailAuth means a login wall could not be cleared
	FailAuth FailurePoint = "auth"
	// FailCaptcha means a CAPTCHA was encountered; CAPTCHAs are never solved
	FailCaptcha FailurePoint = "captcha"
	// FailFieldDetection means form controls could not be discovered
	FailFieldDetection FailurePoint = "field_detection"
	// FailFormSubmission means the final submit action failed
	FailFormSubmission FailurePoint = "form_submission"
	// FailOther covers everything else (missing apply action, interaction errors)
	FailOther FailurePoint = "other"
)

// Outcome is the immutable terminal record of one run. It is built once when
// the run finalizes and never mutated afterward.
type Outcome struct {
	JobURL       string       `json:"job_url"`
	Board        JobBoardType `json:"board"`
	FinalStatus  FinalStatus  `json:"final_status"`
	FailurePoint FailurePoint `json:"failure_point,omitempty"`

	FieldsFilled int     `json:"fields_filled"`
	FieldsTotal  int     `json:"fields_total"`
	FillRatio    float64 `json:"fill_ratio"`
	FillDisplay  string  `json:"fill_display"`

	// SessionPreserved reports whether the browser session was left open for
	// the user to take over.
	SessionPreserved bool `json:"session_preserved"`

	// Sections is the per-section fill status at finalization.
	Sections map[Section]SectionStatus `json:"sections,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// FinalizeOutcome builds the terminal record from a run's context.
func FinalizeOutcome(rc *RunContext, status FinalStatus, point FailurePoint, preserved bool) *Outcome {
	display, ratio := rc.FilledRatio()
	errs := make([]string, len(rc.Errors))
	copy(errs, rc.Errors)
	sections := make(map[Section]SectionStatus, len(rc.Sections))
	for s, status := range rc.Sections {
		sections[s] = status
	}
	return &Outcome{
		JobURL:           rc.JobURL,
		Board:            rc.Board,
		FinalStatus:      status,
		FailurePoint:     point,
		FieldsFilled:     rc.FieldsFilled,
		FieldsTotal:      rc.FieldsTotal,
		FillRatio:        ratio,
		FillDisplay:      display,
		SessionPreserved: preserved,
		Sections:         sections,
		Errors:           errs,
	}
}
