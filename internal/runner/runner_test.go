package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-pilot/internal/blockers"
	"github.com/jonathan/apply-pilot/internal/engine"
	"github.com/jonathan/apply-pilot/internal/metrics"
	"github.com/jonathan/apply-pilot/internal/profile"
	"github.com/jonathan/apply-pilot/internal/types"
	"github.com/jonathan/apply-pilot/internal/visibility"
)

// fakeProvider serves one in-memory profile.
type fakeProvider struct {
	profile *types.ApplicantProfile
	err     error
}

func (p *fakeProvider) GetProfile(_ context.Context, _ string) (*types.ApplicantProfile, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.profile, nil
}

// captureRecorder collects forwarded run records.
type captureRecorder struct {
	mu      sync.Mutex
	records []metrics.RunRecord
	err     error
}

func (r *captureRecorder) Record(_ context.Context, rec metrics.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
	return r.err
}

func (r *captureRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// runnerSession is a minimal scripted session for coordinator tests.
type runnerSession struct {
	mu     sync.Mutex
	closed bool
}

func (s *runnerSession) Navigate(_ context.Context, _ string) error { return nil }
func (s *runnerSession) ClickApply(_ context.Context, _ types.JobBoardType) (bool, bool, error) {
	return true, false, nil
}
func (s *runnerSession) Submit(_ context.Context, _ types.JobBoardType) error { return nil }
func (s *runnerSession) ScanFields(_ context.Context) ([]types.FormField, error) {
	return []types.FormField{
		{Locator: "#email", InputType: "email"},
		{Locator: "#phone", InputType: "tel"},
	}, nil
}
func (s *runnerSession) FillText(_ context.Context, _, _ string) error { return nil }
func (s *runnerSession) CurrentValue(_ context.Context, _ string) (string, error) { return "", nil }
func (s *runnerSession) SelectOption(_ context.Context, _, _ string) error { return nil }
func (s *runnerSession) UploadFile(_ context.Context, _, _ string) error { return nil }
func (s *runnerSession) ClickAddEntry(_ context.Context, _ types.Section) (bool, error) {
	return false, nil
}
func (s *runnerSession) HasLoginWall(_ context.Context) (bool, error) { return false, nil }
func (s *runnerSession) HasCaptcha(_ context.Context) (bool, error) { return false, nil }
func (s *runnerSession) HasPopup(_ context.Context) (bool, error) { return false, nil }
func (s *runnerSession) DismissPopup(_ context.Context) (bool, error) { return true, nil }
func (s *runnerSession) SubmitLogin(_ context.Context, _, _ string) error { return nil }
func (s *runnerSession) WindowID() string { return "WINDOW-1" }

func (s *runnerSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *runnerSession) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func testCoordinator(provider profile.Provider, recorder metrics.Recorder, factory SessionFactory, opts Options) *Coordinator {
	bridge := visibility.NewBridge(visibility.DisplayCapable, nil, false)
	return New(provider, recorder, bridge, factory, opts)
}

func defaultOptions() Options {
	return Options{
		Credentials: blockers.Credentials{},
		Engine:      engine.DefaultConfig(),
	}
}

func TestRun_MissingUserIDIsConfigError(t *testing.T) {
	coordinator := testCoordinator(&fakeProvider{}, nil, nil, defaultOptions())

	_, err := coordinator.Run(context.Background(), "", []string{"https://example.com/jobs/1"})
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_NoJobURLsIsConfigError(t *testing.T) {
	coordinator := testCoordinator(&fakeProvider{}, nil, nil, defaultOptions())

	_, err := coordinator.Run(context.Background(), "user-1", nil)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_UnresolvableProfileIsConfigError(t *testing.T) {
	provider := &fakeProvider{err: profile.ErrNotFound}
	coordinator := testCoordinator(provider, nil, nil, defaultOptions())

	_, err := coordinator.Run(context.Background(), "user-1", []string{"https://example.com/jobs/1"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, profile.ErrNotFound)
}

func TestRun_OutcomesInInputOrder(t *testing.T) {
	provider := &fakeProvider{profile: &types.ApplicantProfile{UserID: "user-1", Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+1 555 0100"}}
	recorder := &captureRecorder{}
	factory := func(_ context.Context, _ string) (Session, error) {
		return &runnerSession{}, nil
	}
	coordinator := testCoordinator(provider, recorder, factory, Options{
		Engine:      engine.DefaultConfig(),
		Parallelism: 2,
	})

	urls := []string{
		"https://boards.greenhouse.io/acme/jobs/1",
		"https://jobs.lever.co/acme/2",
		"https://example.com/jobs/3",
	}
	outcomes, err := coordinator.Run(context.Background(), "user-1", urls)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	for i, out := range outcomes {
		require.NotNil(t, out, "outcome %d", i)
		assert.Equal(t, urls[i], out.JobURL, "outcomes keep input order")
		assert.Equal(t, types.StatusStoppedBeforeSubmit, out.FinalStatus)
	}
	assert.Equal(t, 3, recorder.count(), "one record per run")
}

func TestRun_SessionStartFailureIsAFailedOutcomeNotAnError(t *testing.T) {
	provider := &fakeProvider{profile: &types.ApplicantProfile{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}}
	recorder := &captureRecorder{}
	factory := func(_ context.Context, _ string) (Session, error) {
		return nil, errors.New("chrome executable not found")
	}
	coordinator := testCoordinator(provider, recorder, factory, defaultOptions())

	outcomes, err := coordinator.Run(context.Background(), "user-1", []string{"https://example.com/jobs/1"})
	require.NoError(t, err, "a per-job failure never becomes a coordinator error")
	require.Len(t, outcomes, 1)
	assert.Equal(t, types.StatusFailed, outcomes[0].FinalStatus)
	assert.Equal(t, types.FailOther, outcomes[0].FailurePoint)
	assert.Equal(t, 1, recorder.count(), "failed runs are still recorded")
}

func TestRun_SessionClosedAfterRun(t *testing.T) {
	provider := &fakeProvider{profile: &types.ApplicantProfile{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}}
	session := &runnerSession{}
	factory := func(_ context.Context, _ string) (Session, error) { return session, nil }
	bridge := visibility.NewBridge(visibility.DisplayCapable, nil, false)
	coordinator := New(provider, &captureRecorder{}, bridge, factory, defaultOptions())

	_, err := coordinator.Run(context.Background(), "user-1", []string{"https://example.com/jobs/1"})
	require.NoError(t, err)
	assert.True(t, session.isClosed())
	assert.Zero(t, bridge.ActiveSessions(), "visibility released with the session")
	assert.Zero(t, coordinator.HandoffCount())
}

func TestRun_KeepSessionOpenForPreservedOutcome(t *testing.T) {
	provider := &fakeProvider{profile: &types.ApplicantProfile{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}}
	session := &runnerSession{}
	factory := func(_ context.Context, _ string) (Session, error) { return session, nil }
	opts := defaultOptions()
	opts.KeepSessionOpen = true
	bridge := visibility.NewBridge(visibility.DisplayCapable, nil, false)
	coordinator := New(provider, &captureRecorder{}, bridge, factory, opts)

	outcomes, err := coordinator.Run(context.Background(), "user-1", []string{"https://example.com/jobs/1"})
	require.NoError(t, err)
	require.True(t, outcomes[0].SessionPreserved)
	assert.False(t, session.isClosed(), "preserved session left open for handoff")
	assert.Equal(t, 1, coordinator.HandoffCount())
	assert.Equal(t, 1, bridge.ActiveSessions(), "visibility stays provisioned while the handoff is open")

	coordinator.CloseHandoffs()
	assert.True(t, session.isClosed())
	assert.Zero(t, coordinator.HandoffCount())
	assert.Zero(t, bridge.ActiveSessions())
}

func TestRun_RecorderFailureNeverSurfaces(t *testing.T) {
	provider := &fakeProvider{profile: &types.ApplicantProfile{UserID: "user-1", Name: "Ada", Email: "ada@example.com"}}
	recorder := &captureRecorder{err: errors.New("collector down")}
	factory := func(_ context.Context, _ string) (Session, error) { return &runnerSession{}, nil }
	coordinator := testCoordinator(provider, recorder, factory, defaultOptions())

	outcomes, err := coordinator.Run(context.Background(), "user-1", []string{"https://example.com/jobs/1"})
	require.NoError(t, err)
	assert.Equal(t, types.StatusStoppedBeforeSubmit, outcomes[0].FinalStatus)
}

func TestConfigError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &ConfigError{Reason: "bad setup", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bad setup")
	assert.Contains(t, err.Error(), "root cause")

	noCause := &ConfigError{Reason: "missing user"}
	assert.Contains(t, noCause.Error(), "missing user")
}
