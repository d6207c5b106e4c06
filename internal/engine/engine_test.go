package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/blockers"
	"github.com/jonathan/apply-pilot/internal/types"
)

// fakeSession scripts a full browser session for the state machine.
type fakeSession struct {
	navErr        error
	applyFound    bool
	applyExternal bool
	fields        []types.FormField
	scanErr       error

	loginWall        bool
	captcha          bool
	popupActive      bool
	popupAfterFill   int // surface a popup once this many fields were filled; 0 disables
	captchaAfterFill int // surface a CAPTCHA once this many fields were filled; 0 disables

	submitErr error
	submitted bool

	values    map[string]string
	fillCount int
}

func newFakeSession(fields []types.FormField) *fakeSession {
	return &fakeSession{
		applyFound: true,
		fields:     fields,
		values:     make(map[string]string),
	}
}

func (s *fakeSession) Navigate(_ context.Context, _ string) error { return s.navErr }

func (s *fakeSession) ClickApply(_ context.Context, _ types.JobBoardType) (bool, bool, error) {
	return s.applyFound, s.applyExternal, nil
}

func (s *fakeSession) Submit(_ context.Context, _ types.JobBoardType) error {
	if s.submitErr != nil {
		return s.submitErr
	}
	s.submitted = true
	return nil
}

func (s *fakeSession) ScanFields(_ context.Context) ([]types.FormField, error) {
	if s.scanErr != nil {
		return nil, s.scanErr
	}
	return s.fields, nil
}

func (s *fakeSession) FillText(_ context.Context, locator, value string) error {
	s.values[locator] = value
	s.fillCount++
	if s.popupAfterFill > 0 && s.fillCount == s.popupAfterFill {
		s.popupActive = true
	}
	if s.captchaAfterFill > 0 && s.fillCount == s.captchaAfterFill {
		s.captcha = true
	}
	return nil
}

func (s *fakeSession) CurrentValue(_ context.Context, locator string) (string, error) {
	return s.values[locator], nil
}

func (s *fakeSession) SelectOption(_ context.Context, locator, value string) error {
	s.values[locator] = value
	return nil
}

func (s *fakeSession) UploadFile(_ context.Context, locator, path string) error {
	s.values[locator] = path
	return nil
}

func (s *fakeSession) ClickAddEntry(_ context.Context, _ types.Section) (bool, error) {
	return false, nil
}

func (s *fakeSession) HasLoginWall(_ context.Context) (bool, error) { return s.loginWall, nil }
func (s *fakeSession) HasCaptcha(_ context.Context) (bool, error)   { return s.captcha, nil }
func (s *fakeSession) HasPopup(_ context.Context) (bool, error)     { return s.popupActive, nil }

func (s *fakeSession) DismissPopup(_ context.Context) (bool, error) {
	s.popupActive = false
	return true, nil
}

func (s *fakeSession) SubmitLogin(_ context.Context, _, _ string) error {
	s.loginWall = false
	return nil
}

func engineProfile() *types.ApplicantProfile {
	return &types.ApplicantProfile{
		UserID: "user-1",
		Name:   "Ada Lovelace",
		Email:  "ada@example.com",
		Phone:  "+1 555 0100",
	}
}

// greenhouseBasicFields mimic a scanned Greenhouse application form.
func greenhouseBasicFields() []types.FormField {
	return []types.FormField{
		{Locator: "#first_name", ID: "first_name", InputType: "text"},
		{Locator: "#last_name", ID: "last_name", InputType: "text"},
		{Locator: "#email", ID: "email", InputType: "email"},
		{Locator: "#phone", ID: "phone", InputType: "tel"},
	}
}

const greenhouseURL = "https://boards.greenhouse.io/acme/jobs/4012345"

func newTestEngine(session *fakeSession, cfg Config) *Engine {
	return New(session, blockers.DefaultResolvers(blockers.Credentials{}), cfg)
}

func TestRun_SimpleFormStopsBeforeSubmit(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	eng := newTestEngine(session, DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	require.NotNil(t, out)
	assert.Equal(t, types.StatusStoppedBeforeSubmit, out.FinalStatus)
	assert.True(t, out.SessionPreserved, "session held open for human review")
	assert.False(t, session.submitted, "default policy never submits")
	assert.Equal(t, 4, out.FieldsFilled)
	assert.Equal(t, 4, out.FieldsTotal)
	assert.Equal(t, "4/4", out.FillDisplay)
	assert.Equal(t, types.BoardGreenhouse, out.Board)
	assert.Equal(t, types.ComplexitySimple, rc.Snapshot.Complexity)
	assert.Equal(t, "Ada", session.values["#first_name"])
	assert.Equal(t, "Lovelace", session.values["#last_name"])
}

func TestRun_LoginWallWithoutCredentialsFails(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.loginWall = true
	eng := newTestEngine(session, DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailAuth, out.FailurePoint)
	assert.True(t, rc.LoginRequired)
	assert.Zero(t, out.FieldsFilled, "no fields were touched behind the wall")
	assert.NotEmpty(t, out.Errors)
}

func TestRun_LoginWallClearedWithCredentials(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.loginWall = true
	creds := blockers.Credentials{Email: "ada@example.com", Password: "secret"}
	eng := New(session, blockers.DefaultResolvers(creds), DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusStoppedBeforeSubmit, out.FinalStatus)
	assert.True(t, rc.LoginRequired, "the wall is recorded even when cleared")
	assert.Equal(t, 4, out.FieldsFilled)
}

func TestRun_CaptchaFailsAndPreservesSession(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.captcha = true
	eng := newTestEngine(session, DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailCaptcha, out.FailurePoint)
	assert.True(t, out.SessionPreserved, "session preserved so a human can solve it")
	assert.True(t, rc.CaptchaSeen)
	assert.False(t, session.submitted)
}

func TestRun_CaptchaMidFillPreservesPartialProgress(t *testing.T) {
	fields := make([]types.FormField, 0, 12)
	for i := 0; i < 12; i++ {
		fields = append(fields, types.FormField{
			Locator:      fmt.Sprintf("#f%d", i),
			Autocomplete: "email",
			InputType:    "email",
		})
	}
	session := newFakeSession(fields)
	session.captchaAfterFill = 5
	eng := newTestEngine(session, DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailCaptcha, out.FailurePoint)
	assert.True(t, out.SessionPreserved, "partial progress is kept for a human to finish")
	assert.True(t, rc.CaptchaSeen)
	assert.Equal(t, 5, out.FieldsFilled)
	assert.Equal(t, 12, out.FieldsTotal)
	assert.Equal(t, "5/12", out.FillDisplay)
	assert.False(t, session.submitted)
}

func TestRun_PopupMidFillResolvedAndFillingResumes(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.popupAfterFill = 2
	eng := newTestEngine(session, DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusStoppedBeforeSubmit, out.FinalStatus)
	assert.True(t, rc.PopupSeen)
	assert.True(t, rc.PopupResolved)
	// All fields ended up filled despite the interruption.
	assert.Equal(t, 4, out.FieldsFilled)
	assert.Equal(t, 4, out.FieldsTotal)
}

func TestRun_NoApplyActionFails(t *testing.T) {
	session := newFakeSession(nil)
	session.applyFound = false
	eng := newTestEngine(session, DefaultConfig())

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailOther, out.FailurePoint)
	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0], "no apply action found")
}

func TestRun_ExternalRedirectRecordedNotFailed(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.applyExternal = true
	eng := newTestEngine(session, DefaultConfig())

	out, rc := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusStoppedBeforeSubmit, out.FinalStatus)
	assert.True(t, rc.ExternalRedirect)
}

func TestRun_AutoSubmitAboveThreshold(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	cfg := DefaultConfig()
	cfg.AutoSubmit = true
	eng := newTestEngine(session, cfg)

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusAutoSubmitted, out.FinalStatus)
	assert.True(t, session.submitted)
	assert.False(t, out.SessionPreserved)
}

func TestRun_AutoSubmitBelowThresholdAwaitsUser(t *testing.T) {
	fields := greenhouseBasicFields()
	// Two free-form questions drag the fill ratio to 4/6 = 0.67.
	fields = append(fields,
		types.FormField{Locator: "#q1", Name: "job_application[answers_attributes][0][text_value]", Label: "Why us?", InputType: "textarea"},
		types.FormField{Locator: "#q2", Name: "job_application[answers_attributes][1][text_value]", Label: "Tell us more", InputType: "textarea"},
	)
	session := newFakeSession(fields)
	cfg := DefaultConfig()
	cfg.AutoSubmit = true
	eng := newTestEngine(session, cfg)

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusPartialUserActionNeeded, out.FinalStatus)
	assert.True(t, out.SessionPreserved)
	assert.False(t, session.submitted)
}

func TestRun_AutoSubmitBlockedByUnknownRequiredField(t *testing.T) {
	fields := greenhouseBasicFields()
	fields = append(fields, types.FormField{Locator: "#x", InputType: "text", Required: true})
	session := newFakeSession(fields)
	cfg := DefaultConfig()
	cfg.AutoSubmit = true
	cfg.AutoSubmitThreshold = 0.5 // 4/5 would otherwise pass
	eng := newTestEngine(session, cfg)

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusPartialUserActionNeeded, out.FinalStatus)
	assert.False(t, session.submitted)
}

func TestRun_SubmitFailurePreservesSession(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.submitErr = errors.New("submit button rejected the click")
	cfg := DefaultConfig()
	cfg.AutoSubmit = true
	eng := newTestEngine(session, cfg)

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailFormSubmission, out.FailurePoint)
	assert.True(t, out.SessionPreserved, "filled state is kept for the user")
}

func TestRun_CancellationFinalizesBestEffort(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := newTestEngine(session, DefaultConfig())

	out, _ := eng.Run(ctx, greenhouseURL, engineProfile())

	require.NotNil(t, out)
	assert.Equal(t, types.StatusStoppedBeforeSubmit, out.FinalStatus)
	assert.True(t, out.SessionPreserved)
	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0], "cancelled")
}

func TestRun_InteractionRetryBudgetExhausted(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	session.navErr = errors.New("net::ERR_CONNECTION_REFUSED")
	cfg := DefaultConfig()
	cfg.MaxInteractionRetries = 1
	eng := newTestEngine(session, cfg)

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailOther, out.FailurePoint)
	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0], "ERR_CONNECTION_REFUSED")
}

func TestRun_EmptyScanRetriesThenFailsAtFieldDetection(t *testing.T) {
	session := newFakeSession(nil)
	cfg := DefaultConfig()
	cfg.MaxInteractionRetries = 1
	eng := newTestEngine(session, cfg)

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())

	assert.Equal(t, types.StatusFailed, out.FinalStatus)
	assert.Equal(t, types.FailFieldDetection, out.FailurePoint)
}

func TestRun_FilledNeverExceedsTotal(t *testing.T) {
	session := newFakeSession(greenhouseBasicFields())
	eng := newTestEngine(session, DefaultConfig())

	out, _ := eng.Run(context.Background(), greenhouseURL, engineProfile())
	assert.LessOrEqual(t, out.FieldsFilled, out.FieldsTotal)
	assert.LessOrEqual(t, out.FillRatio, 1.0)
}

func TestDescribe(t *testing.T) {
	out := &types.Outcome{FinalStatus: types.StatusStoppedBeforeSubmit, FillDisplay: "14/15"}
	assert.Contains(t, Describe(out), "14/15")
	assert.Contains(t, Describe(out), "stopped before submission")

	out = &types.Outcome{FinalStatus: types.StatusFailed, FailurePoint: types.FailCaptcha, FillDisplay: "2/9"}
	assert.Contains(t, Describe(out), "captcha")
}
