package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/types"
)

const applicationFormHTML = `
<html><body>
<form id="application">
  <div class="field">
    <label for="first_name">First Name *</label>
    <input type="text" id="first_name" name="job_application[first_name]" required>
  </div>
  <div class="field">
    <label for="email">Email</label>
    <input type="email" id="email" name="job_application[email]" autocomplete="email" aria-required="true">
  </div>
  <div class="field">
    <label>Phone
      <input type="tel" name="phone">
    </label>
  </div>
  <div class="field">
    <label for="resume">Resume/CV</label>
    <input type="file" id="resume" name="resume">
  </div>
  <fieldset>
    <legend>Voluntary Self-Identification</legend>
    <select id="gender" name="gender">
      <option value="">Please select</option>
      <option value="male">Male</option>
      <option value="female">Female</option>
      <option value="decline">Decline to self-identify</option>
    </select>
  </fieldset>
  <textarea name="cover_letter" placeholder="Cover letter"></textarea>
  <input type="text" aria-label="Current location">
  <input type="hidden" name="csrf_token" value="abc">
  <input type="submit" value="Submit Application">
</form>
</body></html>`

func TestParseFields(t *testing.T) {
	fields, err := ParseFields(applicationFormHTML)
	require.NoError(t, err)

	// Hidden and submit controls are never applicant-fillable.
	require.Len(t, fields, 7)

	byLocator := make(map[string]types.FormField)
	for _, f := range fields {
		byLocator[f.Locator] = f
	}

	first := byLocator["#first_name"]
	assert.Equal(t, "First Name *", first.Label)
	assert.Equal(t, "job_application[first_name]", first.Name)
	assert.Equal(t, "text", first.InputType)
	assert.True(t, first.Required)
	assert.Equal(t, types.KindUnknown, first.Kind)

	email := byLocator["#email"]
	assert.Equal(t, "email", email.InputType)
	assert.Equal(t, "email", email.Autocomplete)
	assert.True(t, email.Required, "aria-required counts as required")

	phone := byLocator[`input[name="phone"]`]
	assert.Equal(t, "Phone", phone.Label, "wrapping label text with the control removed")
	assert.Equal(t, "tel", phone.InputType)
	assert.False(t, phone.Required)

	gender := byLocator["#gender"]
	assert.Equal(t, "select", gender.InputType)
	assert.Equal(t, "Voluntary Self-Identification", gender.Context, "fieldset legend captured as context")
	assert.Equal(t, []string{"Please select", "Male", "Female", "Decline to self-identify"}, gender.Options)

	letter := byLocator[`textarea[name="cover_letter"]`]
	assert.Equal(t, "textarea", letter.InputType)
	assert.Equal(t, "Cover letter", letter.Label, "placeholder is the label of last resort")

	// aria-label wins over placeholder absence; positional locator for a bare control.
	var bare types.FormField
	for _, f := range fields {
		if f.Label == "Current location" {
			bare = f
		}
	}
	assert.NotEmpty(t, bare.Locator)
}

func TestParseFields_DocumentOrder(t *testing.T) {
	fields, err := ParseFields(applicationFormHTML)
	require.NoError(t, err)

	assert.Equal(t, "#first_name", fields[0].Locator)
	assert.Equal(t, "#email", fields[1].Locator)
}

func TestParseFields_WorkdayAutomationID(t *testing.T) {
	html := `<html><body>
		<input type="text" data-automation-id="legalNameSection_firstName">
	</body></html>`

	fields, err := ParseFields(html)
	require.NoError(t, err)
	require.Len(t, fields, 1)

	// data-automation-id is folded into both the ID and the locator so the
	// Workday classifier strategy can key off it.
	assert.Equal(t, "legalNameSection_firstName", fields[0].ID)
	assert.Equal(t, `input[data-automation-id="legalNameSection_firstName"]`, fields[0].Locator)
}

func TestParseFields_NoControls(t *testing.T) {
	fields, err := ParseFields("<html><body><p>Position filled.</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, fields)
}
