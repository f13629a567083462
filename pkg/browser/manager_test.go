package browser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/evidence"
)

var fullLifecycle = []State{
	StateUninitialized,
	StateEngineLaunched,
	StateContextCreated,
	StatePageReady,
	StateTracingActive,
	StateInTest,
	StateTeardownTracing,
	StateTeardownContext,
	StateTeardownEngine,
	StateTeardownVideo,
	StateClosed,
}

func TestOpenClosePixel5(t *testing.T) {
	f := newFixture(t, nil)

	s, err := f.manager.Open(context.Background(), Descriptor{Engine: WebKit, Device: "Pixel 5"}, "")
	require.NoError(t, err)
	assert.Equal(t, StateInTest, s.State())
	assert.NotEmpty(t, s.ID())

	wantTrace := filepath.Join(f.traceDir, "traceview_20240501_101112_webkit_Pixel_5.zip")
	assert.Equal(t, wantTrace, s.TracePath())

	// Context got the Pixel 5 profile and a fixed-size recording.
	require.NotNil(t, f.contextOpts.UserAgent)
	assert.Equal(t, pixel5.UserAgent, *f.contextOpts.UserAgent)
	assert.Equal(t, pixel5.Viewport, f.contextOpts.Viewport)
	assert.True(t, *f.contextOpts.IsMobile)
	require.NotNil(t, f.contextOpts.RecordVideo)
	assert.Equal(t, f.videoDir, f.contextOpts.RecordVideo.Dir)
	assert.Equal(t, 1920, f.contextOpts.RecordVideo.Size.Width)
	assert.Equal(t, 1080, f.contextOpts.RecordVideo.Size.Height)

	f.page.AssertCalled(t, "SetDefaultTimeout", 5000.0)
	f.launcher.AssertCalled(t, "Launch", WebKit, LaunchOptions{SlowMo: 500 * time.Millisecond})

	report := s.Close()
	require.NotNil(t, report)
	assert.False(t, report.Failed())
	assert.Equal(t, []Step{StepTracing, StepContext, StepEngine, StepVideo}, report.Ran())

	f.context.AssertCalled(t, "StopTracing", wantTrace)

	wantVideo := filepath.Join(f.videoDir, "20240501-101112.webm")
	assert.Equal(t, wantVideo, s.VideoPath())
	assert.FileExists(t, wantVideo)
	assert.NoFileExists(t, f.videoSrc)

	assert.Equal(t, fullLifecycle, s.Transitions())
	assert.Equal(t, []string{
		"launch", "newContext", "newPage", "startTracing",
		"stopTracing", "closeContext", "closeEngine", "videoPath",
	}, f.log.all())

	assert.NotContains(t, f.logContents(t), "CRITICAL")
}

func TestOpenWithResolution(t *testing.T) {
	f := newFixture(t, nil)

	s, err := f.manager.Open(context.Background(),
		Descriptor{Engine: Chromium, Resolution: &Viewport{Width: 1920, Height: 1080}}, "TestHome/title")
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, filepath.Join(f.traceDir, "traceview_20240501_101112_chromium_1920x1080_TestHome_title.zip"), s.TracePath())
	assert.Nil(t, f.contextOpts.UserAgent)
	require.NotNil(t, f.contextOpts.Viewport)
	assert.Equal(t, 1920, f.contextOpts.Viewport.Width)
	f.launcher.AssertNotCalled(t, "Device", mock.Anything)
}

func TestOpenDefaultViewport(t *testing.T) {
	f := newFixture(t, nil)

	s, err := f.manager.Open(context.Background(), Descriptor{Engine: Firefox}, "TestDefault")
	require.NoError(t, err)
	s.Close()

	assert.Nil(t, f.contextOpts.Viewport)
	assert.Nil(t, f.contextOpts.UserAgent)
	assert.Contains(t, s.TracePath(), "_firefox_default_TestDefault.zip")
	assert.Equal(t, filepath.Join(f.videoDir, "20240501-101112_TestDefault.webm"), s.VideoPath())
}

func TestOpenRejectsBadDescriptors(t *testing.T) {
	tests := []struct {
		name    string
		desc    Descriptor
		wantErr error
	}{
		{"unsupported engine", Descriptor{Engine: "netscape"}, ErrUnsupportedEngine},
		{"device and resolution", Descriptor{Engine: WebKit, Device: "Pixel 5", Resolution: &Viewport{Width: 1, Height: 1}}, ErrConflictingViewport},
		{"unknown device", Descriptor{Engine: WebKit, Device: "Nokia 3310"}, ErrUnknownDevice},
		{"mobile device on firefox", Descriptor{Engine: Firefox, Device: "Pixel 5"}, ErrMobileUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			s, err := f.manager.Open(context.Background(), tt.desc, "TestBad")
			require.Error(t, err)
			assert.Nil(t, s)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.True(t, config.IsConfigurationError(err))
			assert.False(t, IsSetupError(err))

			f.launcher.AssertNotCalled(t, "Launch", mock.Anything, mock.Anything)
			assert.Empty(t, f.log.all(), "no resource is acquired")
			assert.Contains(t, f.logContents(t), "CRITICAL")
		})
	}
}

func TestOpenCancelledContext(t *testing.T) {
	f := newFixture(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.manager.Open(ctx, Descriptor{Engine: WebKit}, "TestCancelled")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.log.all())
}

func TestSetupFailureTearsDownAcquired(t *testing.T) {
	tests := []struct {
		key    string
		stage  Stage
		ran    []Step
		states []State
		calls  []string
	}{
		{
			key:    "launch",
			stage:  StageLaunch,
			states: []State{StateUninitialized, StateClosed},
			calls:  []string{"launch"},
		},
		{
			key:    "context",
			stage:  StageContext,
			ran:    []Step{StepEngine},
			states: []State{StateUninitialized, StateEngineLaunched, StateTeardownEngine, StateClosed},
			calls:  []string{"launch", "newContext", "closeEngine"},
		},
		{
			key:   "page",
			stage: StagePage,
			ran:   []Step{StepContext, StepEngine},
			states: []State{StateUninitialized, StateEngineLaunched, StateContextCreated,
				StateTeardownContext, StateTeardownEngine, StateClosed},
			calls: []string{"launch", "newContext", "newPage", "closeContext", "closeEngine"},
		},
		{
			key:   "tracing",
			stage: StageTracing,
			ran:   []Step{StepContext, StepEngine, StepVideo},
			states: []State{StateUninitialized, StateEngineLaunched, StateContextCreated, StatePageReady,
				StateTeardownContext, StateTeardownEngine, StateTeardownVideo, StateClosed},
			calls: []string{"launch", "newContext", "newPage", "startTracing", "closeContext", "closeEngine", "videoPath"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			injected := errors.New("injected " + tt.key + " failure")
			f := newFixture(t, failures{tt.key: injected})

			s, err := f.manager.Open(context.Background(), Descriptor{Engine: WebKit, Device: "Pixel 5"}, "TestSetup")
			require.Error(t, err)
			assert.Nil(t, s)
			assert.ErrorIs(t, err, injected)

			var setupErr *SetupError
			require.ErrorAs(t, err, &setupErr)
			assert.Equal(t, tt.stage, setupErr.Stage)
			assert.Equal(t, WebKit, setupErr.Descriptor.Engine)
			assert.Equal(t, tt.states, setupErr.Transitions)
			assert.False(t, setupErr.Teardown.Failed())
			if len(tt.ran) == 0 {
				assert.Empty(t, setupErr.Teardown.Ran())
			} else {
				assert.Equal(t, tt.ran, setupErr.Teardown.Ran())
			}

			assert.Equal(t, tt.calls, f.log.all())
			f.context.AssertNotCalled(t, "StopTracing", mock.Anything)

			logs := f.logContents(t)
			assert.Contains(t, logs, "CRITICAL")
			assert.Contains(t, logs, "*errors.errorString")
			assert.Contains(t, logs, injected.Error())
		})
	}
}

func TestTeardownStepsAreIsolated(t *testing.T) {
	tests := []struct {
		key  string
		step Step
		err  error
	}{
		{"stopTracing", StepTracing, errors.New("trace disk full")},
		{"closeContext", StepContext, errors.New("context already closed")},
		{"closeEngine", StepEngine, errors.New("browser crashed")},
		{"video", StepVideo, errors.New("no video frames")},
		{"closeContext", StepContext, errPanic},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.err.Error(), func(t *testing.T) {
			f := newFixture(t, failures{tt.key: tt.err})

			bodyRan := false
			err := f.manager.Run(context.Background(), Descriptor{Engine: WebKit, Device: "Pixel 5"}, "TestTeardown",
				func(ctx context.Context, s *Session) error {
					bodyRan = true
					return nil
				})

			assert.NoError(t, err, "teardown failures never surface as the test result")
			assert.True(t, bodyRan)

			assert.Equal(t, []string{
				"launch", "newContext", "newPage", "startTracing",
				"stopTracing", "closeContext", "closeEngine", "videoPath",
			}, f.log.all(), "every step runs despite the failure")

			logs := f.logContents(t)
			assert.Contains(t, logs, "ERROR")
			assert.Contains(t, logs, "teardown "+string(tt.step))
			assert.NotContains(t, logs, "CRITICAL")
		})
	}
}

func TestTeardownReportFailures(t *testing.T) {
	injected := errors.New("browser crashed")
	f := newFixture(t, failures{"closeEngine": injected})

	s, err := f.manager.Open(context.Background(), Descriptor{Engine: WebKit}, "TestReport")
	require.NoError(t, err)

	report := s.Close()
	require.True(t, report.Failed())
	failed := report.Failures()
	require.Len(t, failed, 1)
	assert.Equal(t, StepEngine, failed[0].Step)
	assert.ErrorIs(t, report.Err(), injected)

	rec := s.Record(nil)
	assert.Equal(t, evidence.OutcomePassed, rec.Outcome)
	assert.Equal(t, []string{"teardown engine: browser crashed"}, rec.TeardownFailures)
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)

	s, err := f.manager.Open(context.Background(), Descriptor{Engine: WebKit}, "TestIdempotent")
	require.NoError(t, err)

	first := s.Close()
	second := s.Close()

	assert.Same(t, first, second)
	f.context.AssertNumberOfCalls(t, "Close", 1)
	f.instance.AssertNumberOfCalls(t, "Close", 1)
	f.context.AssertNumberOfCalls(t, "StopTracing", 1)
	assert.Equal(t, StateClosed, s.State())
}

func TestRunReturnsBodyError(t *testing.T) {
	f := newFixture(t, failures{"closeContext": errors.New("cleanup failed")})
	bodyErr := errors.New("title mismatch")

	var session *Session
	err := f.manager.Run(context.Background(), Descriptor{Engine: WebKit}, "TestBody",
		func(ctx context.Context, s *Session) error {
			session = s
			return bodyErr
		})

	assert.Same(t, bodyErr, err)
	assert.Equal(t, StateClosed, session.State())

	rec := session.Record(nil)
	assert.Equal(t, evidence.OutcomeFailed, rec.Outcome)
	assert.Equal(t, "title mismatch", rec.Error)
}

func TestRunTearsDownOnPanic(t *testing.T) {
	f := newFixture(t, nil)

	var session *Session
	assert.PanicsWithValue(t, "assertion exploded", func() {
		_ = f.manager.Run(context.Background(), Descriptor{Engine: WebKit}, "TestPanic",
			func(ctx context.Context, s *Session) error {
				session = s
				panic("assertion exploded")
			})
	})

	require.NotNil(t, session)
	assert.Equal(t, fullLifecycle, session.Transitions())
	f.instance.AssertNumberOfCalls(t, "Close", 1)
}

func TestRunTearsDownOnCancellation(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	var session *Session
	err := f.manager.Run(ctx, Descriptor{Engine: WebKit}, "TestCancel",
		func(ctx context.Context, s *Session) error {
			session = s
			cancel()
			<-ctx.Done()
			return ctx.Err()
		})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, session.State())
	assert.FileExists(t, session.VideoPath())
}

func TestParallelSessionsGetUniqueArtifacts(t *testing.T) {
	dir := t.TempDir()
	namer := evidence.NewNamer()

	a := newFixtureIn(t, dir, "a.webm", namer, nil)
	b := newFixtureIn(t, dir, "b.webm", namer, nil)

	descs := []Descriptor{
		{Engine: WebKit, Device: "Pixel 5"},
		{Engine: WebKit, Device: "iPhone 12"},
	}
	managers := []*Manager{a.manager, b.manager}
	sessions := make([]*Session, 2)

	var wg sync.WaitGroup
	for i := range managers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := managers[i].Run(context.Background(), descs[i], "", func(ctx context.Context, s *Session) error {
				sessions[i] = s
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	require.NotNil(t, sessions[0])
	require.NotNil(t, sessions[1])

	assert.NotEqual(t, sessions[0].TracePath(), sessions[1].TracePath())
	assert.NotEqual(t, sessions[0].VideoPath(), sessions[1].VideoPath())
	assert.NotEqual(t, sessions[0].ID(), sessions[1].ID())

	videos := []string{filepath.Base(sessions[0].VideoPath()), filepath.Base(sessions[1].VideoPath())}
	assert.ElementsMatch(t, []string{"20240501-101112.webm", "20240501-101112_2.webm"}, videos)

	for _, s := range sessions {
		_, err := os.Stat(s.VideoPath())
		assert.NoError(t, err)
	}
}

func TestDescriptorFromEntry(t *testing.T) {
	desc, err := DescriptorFromEntry(config.Entry{Engine: "WebKit", Device: "Pixel 5"})
	require.NoError(t, err)
	assert.Equal(t, WebKit, desc.Engine)
	assert.Equal(t, "Pixel_5", desc.Slug())
	assert.Equal(t, "webkit-Pixel 5", desc.String())

	desc, err = DescriptorFromEntry(config.Entry{Engine: "chromium", Resolution: "1366x768"})
	require.NoError(t, err)
	require.NotNil(t, desc.Resolution)
	assert.Equal(t, "1366x768", desc.Slug())

	_, err = DescriptorFromEntry(config.Entry{Engine: "opera"})
	assert.ErrorIs(t, err, ErrUnsupportedEngine)

	_, err = ParseEngine("safari")
	assert.True(t, config.IsConfigurationError(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "TRACING_ACTIVE", StateTracingActive.String())
	assert.Equal(t, "CLOSED", StateClosed.String())
	assert.Equal(t, "UNKNOWN", State(99).String())
}

func TestContextOptionsOmitMobileOnFirefox(t *testing.T) {
	opts := contextOptions(Descriptor{Engine: Firefox, Device: "Pixel 5"}, pixel5, Options{})
	assert.Nil(t, opts.IsMobile)
	assert.Equal(t, pixel5.Viewport, opts.Viewport)

	opts = contextOptions(Descriptor{Engine: WebKit, Device: "Pixel 5"}, pixel5, Options{})
	require.NotNil(t, opts.IsMobile)
	assert.True(t, *opts.IsMobile)

	assert.ErrorIs(t, checkDevice(Firefox, pixel5), ErrMobileUnsupported)
	assert.NoError(t, checkDevice(Chromium, pixel5))
	assert.NoError(t, checkDevice(Firefox, &playwright.DeviceDescriptor{Viewport: &playwright.Size{Width: 1280, Height: 720}}))
}
