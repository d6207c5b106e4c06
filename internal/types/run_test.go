//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRunContext(t *testing.T) {
	rc := NewRunContext("https://boards.greenhouse.io/acme/jobs/123")

	assert.Equal(t, "https://boards.greenhouse.io/acme/jobs/123", rc.JobURL)
	assert.Equal(t, BoardOtherATS, rc.Board)
	assert.NotNil(t, rc.Sections)
	assert.False(t, rc.StartedAt.IsZero())
	assert.Empty(t, rc.Errors)
}

func TestRunContext_RecordError(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")
	rc.RecordError("no apply action found after %d attempts", 3)
	rc.RecordError("blocker %s is unresolvable", "captcha")

	assert.Len(t, rc.Errors, 2)
	assert.Equal(t, "no apply action found after 3 attempts", rc.Errors[0])
	assert.Equal(t, "blocker captcha is unresolvable", rc.Errors[1])
}

func TestRunContext_MarkSection_NeverDowngradesFilled(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")

	rc.MarkSection(SectionBasicInfo, SectionAvailableNotFilled)
	assert.Equal(t, SectionAvailableNotFilled, rc.Sections[SectionBasicInfo])

	rc.MarkSection(SectionBasicInfo, SectionFilled)
	assert.Equal(t, SectionFilled, rc.Sections[SectionBasicInfo])

	// A later partial observation never downgrades a filled section.
	rc.MarkSection(SectionBasicInfo, SectionPartiallyFilled)
	assert.Equal(t, SectionFilled, rc.Sections[SectionBasicInfo])

	// Other transitions remain free.
	rc.MarkSection(SectionEducation, SectionPartiallyFilled)
	rc.MarkSection(SectionEducation, SectionAvailableNotFilled)
	assert.Equal(t, SectionAvailableNotFilled, rc.Sections[SectionEducation])
}

func TestRunContext_FilledRatio(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")
	rc.FieldsFilled = 14
	rc.FieldsTotal = 15

	display, ratio := rc.FilledRatio()
	assert.Equal(t, "14/15", display)
	assert.InDelta(t, 0.933, ratio, 0.001)
}

func TestRunContext_FilledRatio_ZeroTotal(t *testing.T) {
	rc := NewRunContext("https://example.com/jobs/1")

	display, ratio := rc.FilledRatio()
	assert.Equal(t, "0/0", display)
	assert.Zero(t, ratio)
}
