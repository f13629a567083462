package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/evidence"
	"github.com/entrhq/uitest/pkg/logging"
)

// Manager opens instrumented browser sessions. It keeps no per-session state,
// so one Manager can serve sessions running in parallel.
type Manager struct {
	launcher Launcher
	logger   *logging.Logger
	opts     Options
	namer    *evidence.Namer
	now      func() time.Time
	newID    func() string
}

// ManagerOption is a function that configures a manager
type ManagerOption func(*Manager)

// WithClock sets the clock used for artifact timestamps
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

// WithNamer sets the artifact name registry
// If not provided, evidence.DefaultNamer is used
func WithNamer(namer *evidence.Namer) ManagerOption {
	return func(m *Manager) {
		m.namer = namer
	}
}

// NewManager creates a session manager.
func NewManager(launcher Launcher, logger *logging.Logger, opts Options, options ...ManagerOption) *Manager {
	m := &Manager{
		launcher: launcher,
		logger:   logger,
		opts:     opts,
		namer:    evidence.DefaultNamer(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Options returns the manager options.
func (m *Manager) Options() Options {
	return m.opts
}

// Run opens a session, runs body with it, and closes the session however body
// returns, panics or is cancelled. body's error is returned unchanged;
// teardown failures are only logged.
func (m *Manager) Run(ctx context.Context, desc Descriptor, testName string, body func(ctx context.Context, s *Session) error) error {
	s, err := m.Open(ctx, desc, testName)
	if err != nil {
		return err
	}
	defer s.Close()

	err = body(ctx, s)
	s.setOutcome(err)
	return err
}

// Open acquires engine, context and page for desc, starts tracing, and returns
// a session in IN_TEST. On failure, everything already acquired is torn down
// and a *SetupError (or a *config.ConfigurationError for a bad descriptor) is
// returned.
func (m *Manager) Open(ctx context.Context, desc Descriptor, testName string) (*Session, error) {
	s := &Session{
		id:        m.newID(),
		desc:      desc,
		testName:  testName,
		manager:   m,
		startedAt: m.now(),
		state:     StateUninitialized,
	}
	s.transitions = []State{StateUninitialized}
	s.report = &TeardownReport{SessionID: s.id}

	if err := ctx.Err(); err != nil {
		s.teardown()
		return nil, err
	}

	if err := desc.Validate(); err != nil {
		m.logger.Criticalf("session %s rejected: %v", s.id, err)
		s.teardown()
		return nil, err
	}

	var device *playwright.DeviceDescriptor
	if desc.Device != "" {
		d, err := m.launcher.Device(desc.Device)
		if err != nil {
			cfgErr := &config.ConfigurationError{
				Reason: fmt.Sprintf("device profile %q", desc.Device),
				Err:    err,
			}
			if !errors.Is(err, ErrUnknownDevice) {
				cfgErr.Err = fmt.Errorf("%w: %v", ErrUnknownDevice, err)
			}
			m.logger.Criticalf("session %s rejected: %v", s.id, cfgErr)
			s.teardown()
			return nil, cfgErr
		}
		if err := checkDevice(desc.Engine, d); err != nil {
			cfgErr := &config.ConfigurationError{
				Reason: fmt.Sprintf("%s cannot run device profile %q", desc.Engine, desc.Device),
				Err:    err,
			}
			m.logger.Criticalf("session %s rejected: %v", s.id, cfgErr)
			s.teardown()
			return nil, cfgErr
		}
		device = d
	}

	s.tracePath = m.namer.Reserve(m.opts.TraceDir,
		evidence.TraceName(s.startedAt, string(desc.Engine), desc.Slug(), testName))

	m.logger.Infof("session %s: launching %s for %s", s.id, desc, displayName(testName))

	instance, err := m.launcher.Launch(desc.Engine, LaunchOptions{
		Headless: m.opts.Headless,
		SlowMo:   m.opts.SlowMo,
	})
	if err != nil {
		return nil, s.failSetup(StageLaunch, err)
	}
	s.instance = instance
	s.transition(StateEngineLaunched)

	bctx, err := instance.NewContext(contextOptions(desc, device, m.opts))
	if err != nil {
		return nil, s.failSetup(StageContext, err)
	}
	s.context = bctx
	s.transition(StateContextCreated)

	page, err := bctx.NewPage()
	if err != nil {
		return nil, s.failSetup(StagePage, err)
	}
	s.page = page
	if m.opts.DefaultTimeout > 0 {
		page.SetDefaultTimeout(float64(m.opts.DefaultTimeout / time.Millisecond))
	}
	s.transition(StatePageReady)

	if err := bctx.StartTracing(); err != nil {
		return nil, s.failSetup(StageTracing, err)
	}
	s.tracing = true
	s.transition(StateTracingActive)

	s.transition(StateInTest)
	m.logger.Debugf("session %s ready, trace %s", s.id, s.tracePath)
	return s, nil
}

func displayName(testName string) string {
	if testName == "" {
		return "unnamed test"
	}
	return testName
}
