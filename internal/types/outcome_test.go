//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalizeOutcome(t *testing.T) {
	rc := NewRunContext("https://jobs.lever.co/acme/abc")
	rc.Board = BoardLever
	rc.FieldsFilled = 7
	rc.FieldsTotal = 10
	rc.RecordError("blocker popup resolve attempt: timeout")

	out := FinalizeOutcome(rc, StatusStoppedBeforeSubmit, "", true)

	require.NotNil(t, out)
	assert.Equal(t, rc.JobURL, out.JobURL)
	assert.Equal(t, BoardLever, out.Board)
	assert.Equal(t, StatusStoppedBeforeSubmit, out.FinalStatus)
	assert.Empty(t, out.FailurePoint)
	assert.Equal(t, 7, out.FieldsFilled)
	assert.Equal(t, 10, out.FieldsTotal)
	assert.Equal(t, "7/10", out.FillDisplay)
	assert.InDelta(t, 0.7, out.FillRatio, 0.001)
	assert.True(t, out.SessionPreserved)
	assert.Equal(t, []string{"blocker popup resolve attempt: timeout"}, out.Errors)
}

func TestFinalizeOutcome_CopiesErrors(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")
	rc.RecordError("first")

	out := FinalizeOutcome(rc, StatusFailed, FailOther, false)

	// Later run-context mutation must not leak into the sealed outcome.
	rc.RecordError("second")
	rc.Errors[0] = "mutated"

	require.Len(t, out.Errors, 1)
	assert.Equal(t, "first", out.Errors[0])
}

func TestFinalizeOutcome_CopiesSections(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")
	rc.Sections[SectionBasicInfo] = SectionFilled

	out := FinalizeOutcome(rc, StatusStoppedBeforeSubmit, "", true)

	rc.Sections[SectionBasicInfo] = SectionAvailableNotFilled
	rc.Sections[SectionResume] = SectionFilled

	require.Len(t, out.Sections, 1)
	assert.Equal(t, SectionFilled, out.Sections[SectionBasicInfo])
}

func TestFinalizeOutcome_FailureCarriesPoint(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")

	out := FinalizeOutcome(rc, StatusFailed, FailCaptcha, true)
	assert.Equal(t, StatusFailed, out.FinalStatus)
	assert.Equal(t, FailCaptcha, out.FailurePoint)
	assert.True(t, out.SessionPreserved)
}
