// Package metrics emits one flat record per finished run to an external
// collector. The core only ever writes; the collector is never queried.
package metrics

import (
	"context"
	"time"

	"github.com/jonathan/apply-pilot/internal/types"
)

// RunRecord is the flat per-run record forwarded after each run. It combines
// the run context's observations with the terminal outcome.
type RunRecord struct {
	RunID  string `json:"run_id"`
	UserID string `json:"user_id"`
	JobURL string `json:"job_url"`

	Board          types.JobBoardType   `json:"board"`
	Complexity     types.FormComplexity `json:"complexity,omitempty"`
	LoginRequired  bool                 `json:"login_required"`
	CaptchaSeen    bool                 `json:"captcha_seen"`
	PopupSeen      bool                 `json:"popup_seen"`
	PopupResolved  bool                 `json:"popup_resolved"`
	ExternalSite   bool                 `json:"external_redirect"`
	VisibilityMode types.VisibilityMode `json:"visibility_mode"`

	FinalStatus      types.FinalStatus  `json:"final_status"`
	FailurePoint     types.FailurePoint `json:"failure_point,omitempty"`
	FieldsFilled     int                `json:"fields_filled"`
	FieldsTotal      int                `json:"fields_total"`
	FillRatio        float64            `json:"fill_ratio"`
	SessionPreserved bool               `json:"session_preserved"`

	Elapsed time.Duration `json:"elapsed"`
	Errors  []string      `json:"errors,omitempty"`
}

// Recorder receives run records. Implementations must not block runs on
// collector availability; a failed record is logged and dropped, never
// propagated into an outcome.
type Recorder interface {
	Record(ctx context.Context, rec RunRecord) error
}

// NopRecorder discards all records.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(_ context.Context, _ RunRecord) error { return nil }

// BuildRecord assembles the flat record from a run's pieces.
func BuildRecord(runID, userID string, rc *types.RunContext, out *types.Outcome, handle types.VisibilityHandle) RunRecord {
	rec := RunRecord{
		RunID:            runID,
		UserID:           userID,
		JobURL:           out.JobURL,
		Board:            out.Board,
		LoginRequired:    rc.LoginRequired,
		CaptchaSeen:      rc.CaptchaSeen,
		PopupSeen:        rc.PopupSeen,
		PopupResolved:    rc.PopupResolved,
		ExternalSite:     rc.ExternalRedirect,
		VisibilityMode:   handle.Mode,
		FinalStatus:      out.FinalStatus,
		FailurePoint:     out.FailurePoint,
		FieldsFilled:     out.FieldsFilled,
		FieldsTotal:      out.FieldsTotal,
		FillRatio:        out.FillRatio,
		SessionPreserved: out.SessionPreserved,
		Elapsed:          rc.Elapsed,
		Errors:           out.Errors,
	}
	if rc.Snapshot != nil {
		rec.Complexity = rc.Snapshot.Complexity
	}
	return rec
}
