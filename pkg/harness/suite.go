// Package harness composes configuration, logging, evidence directories and
// the browser session manager for a test binary.
//
// Call Bootstrap once, usually from TestMain, and hand each test a page:
//
//	func TestMain(m *testing.M) {
//		suite, err := harness.Bootstrap(harness.Options{})
//		if err != nil {
//			fmt.Fprintln(os.Stderr, err)
//			os.Exit(1)
//		}
//		code := m.Run()
//		suite.Close()
//		os.Exit(code)
//	}
//
//	func TestHome(t *testing.T) {
//		p := suite.Page(t, browser.Descriptor{Engine: browser.WebKit, Device: "Pixel 5"})
//		require.NoError(t, harness.SetUpHome(p))
//	}
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/uitest/pkg/browser"
	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/evidence"
	"github.com/entrhq/uitest/pkg/logging"
	"github.com/entrhq/uitest/pkg/pages"
)

// DefaultLoggerName names the shared logger.
const DefaultLoggerName = "uitest"

// ErrNoDriver is returned when browser work is requested from a suite that
// was bootstrapped without one.
var ErrNoDriver = errors.New("no browser driver")

// Options controls Bootstrap.
type Options struct {
	Load config.LoadOptions

	// LoggerName defaults to DefaultLoggerName.
	LoggerName string

	// Console receives console log output. Defaults to stderr.
	Console io.Writer

	// SkipBrowsers stops after configuration and directories. Page and API
	// are unavailable.
	SkipBrowsers bool

	// Install downloads the driver and browsers before starting.
	Install bool

	// Engines limits what Install downloads.
	Engines []browser.Engine

	// Launcher replaces the Playwright driver.
	Launcher browser.Launcher

	ManagerOptions []browser.ManagerOption
	PageOptions    []pages.Option
}

// Suite is the per-process test context.
type Suite struct {
	Config  *config.Config
	Logger  *logging.Logger
	Manager *browser.Manager

	runID   string
	started time.Time
	driver  *browser.Playwright
	pageOps []pages.Option

	mu      sync.Mutex
	api     playwright.APIRequestContext
	records []evidence.SessionRecord
	closed  bool
}

// Bootstrap loads the environment, provisions the logger, validates the
// critical variables, creates the evidence directories and starts the
// browser driver, in that order. Any failure aborts the run.
func Bootstrap(opts Options) (*Suite, error) {
	started := time.Now()

	cfg, err := config.Load(opts.Load)
	if err != nil {
		return nil, err
	}

	early := logging.ConsoleOnly(loggerName(opts), logging.LevelInfo, opts.Console)
	if err := evidence.EnsureDirectories([]string{cfg.Paths.Log}, early); err != nil {
		return nil, err
	}

	logger, err := provisionLogger(cfg, opts)
	if err != nil {
		return nil, err
	}

	for _, w := range cfg.Warnings {
		logger.Warnf("%s", w)
	}
	if cfg.EnvFileLoaded {
		logger.Infof("environment %q loaded from %s", cfg.Environment, cfg.EnvFile)
	}

	if err := cfg.Validate(); err != nil {
		logger.Criticalf("%v", err)
		logger.Close()
		return nil, err
	}

	if err := evidence.EnsureDirectories(cfg.Paths.Evidence(), logger); err != nil {
		logger.Close()
		return nil, err
	}

	s := &Suite{
		Config:  cfg,
		Logger:  logger,
		runID:   uuid.NewString(),
		started: started,
		pageOps: opts.PageOptions,
	}

	launcher := opts.Launcher
	if launcher == nil && !opts.SkipBrowsers {
		driver, err := browser.Start(browser.StartOptions{
			Install: opts.Install,
			Engines: opts.Engines,
		})
		if err != nil {
			logger.Criticalf("%v", err)
			logger.Close()
			return nil, err
		}
		s.driver = driver
		launcher = driver
	}
	if launcher != nil {
		s.Manager = browser.NewManager(launcher, logger, browser.OptionsFromConfig(cfg), opts.ManagerOptions...)
	}

	logger.Infof("run %s ready: environment %q, base URL %s", s.runID, cfg.Environment, cfg.BaseURL)
	return s, nil
}

func loggerName(opts Options) string {
	if opts.LoggerName == "" {
		return DefaultLoggerName
	}
	return opts.LoggerName
}

func provisionLogger(cfg *config.Config, opts Options) (*logging.Logger, error) {
	logOpts := logging.DefaultOptions(cfg.Paths.Log)
	logOpts.Console = opts.Console

	var warnings []string
	if cfg.ConsoleLevel != "" {
		if lvl, err := logging.ParseLevel(cfg.ConsoleLevel); err == nil {
			logOpts.ConsoleLevel = lvl
		} else {
			warnings = append(warnings, err.Error())
		}
	}
	if cfg.FileLevel != "" {
		if lvl, err := logging.ParseLevel(cfg.FileLevel); err == nil {
			logOpts.FileLevel = lvl
		} else {
			warnings = append(warnings, err.Error())
		}
	}

	logger, err := logging.Provision(loggerName(opts), logOpts)
	if err != nil {
		return nil, fmt.Errorf("provision logger: %w", err)
	}
	for _, w := range warnings {
		logger.Warnf("ignoring log level: %s", w)
	}
	return logger, nil
}

// RunID identifies this process's run in logs and reports.
func (s *Suite) RunID() string {
	return s.runID
}

// Driver is the Playwright driver, or nil when a custom launcher is used or
// browsers were skipped.
func (s *Suite) Driver() *browser.Playwright {
	return s.driver
}

// Open starts a session for t and closes it when t finishes. A setup failure
// fails t immediately with the setup error.
func (s *Suite) Open(t testing.TB, desc browser.Descriptor) *browser.Session {
	t.Helper()

	if s.Manager == nil {
		t.Fatalf("open session: %v", ErrNoDriver)
	}

	start := time.Now()
	session, err := s.Manager.Open(context.Background(), desc, t.Name())
	if err != nil {
		s.record(browser.SetupRecord(desc, t.Name(), start, err))
		t.Fatalf("%v", err)
	}

	t.Cleanup(func() {
		session.Close()
		var testErr error
		if t.Failed() {
			testErr = fmt.Errorf("%s failed", t.Name())
		}
		s.record(session.Record(testErr))
	})
	return session
}

// Page opens a session for t and wires a page object around it.
func (s *Suite) Page(t testing.TB, desc browser.Descriptor) *pages.BasePage {
	t.Helper()
	session := s.Open(t, desc)
	return s.NewPage(session)
}

// NewPage wires a page object around an open session.
func (s *Suite) NewPage(session *browser.Session) *pages.BasePage {
	return pages.New(session.Page(), s.Config, s.Logger, s.pageOps...)
}

// Run drives body in a fresh session outside of go test and records the
// outcome. The session is closed before Run returns.
func (s *Suite) Run(ctx context.Context, desc browser.Descriptor, name string, body func(p *pages.BasePage) error) (evidence.SessionRecord, error) {
	start := time.Now()
	if s.Manager == nil {
		rec := browser.SetupRecord(desc, name, start, ErrNoDriver)
		s.record(rec)
		return rec, ErrNoDriver
	}

	var session *browser.Session
	err := s.Manager.Run(ctx, desc, name, func(ctx context.Context, sess *browser.Session) error {
		session = sess
		return body(s.NewPage(sess))
	})

	var rec evidence.SessionRecord
	if session == nil {
		rec = browser.SetupRecord(desc, name, start, err)
	} else {
		rec = session.Record(nil)
	}
	s.record(rec)

	if err != nil {
		s.Logger.Errorf("%s on %s failed: %v", name, desc, err)
	} else {
		s.Logger.Infof("%s on %s passed in %s", name, desc, rec.Duration)
	}
	return rec, err
}

// API returns the suite's request context for API_URL, creating it on first
// use. It lives until Close.
func (s *Suite) API(t testing.TB) playwright.APIRequestContext {
	t.Helper()
	api, err := s.apiContext()
	if err != nil {
		t.Fatalf("api context: %v", err)
	}
	return api
}

func (s *Suite) apiContext() (playwright.APIRequestContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.api != nil {
		return s.api, nil
	}
	if s.driver == nil {
		return nil, ErrNoDriver
	}

	api, err := s.driver.NewAPIContext(s.Config.APIURL, s.Config.APITimeout)
	if err != nil {
		s.Logger.Errorf("api context for %s: %v", s.Config.APIURL, err)
		return nil, err
	}
	s.Logger.Infof("api context ready for %s (timeout %s)", s.Config.APIURL, s.Config.APITimeout)
	s.api = api
	return api, nil
}

// Record adds a session outcome to the run summary.
func (s *Suite) Record(rec evidence.SessionRecord) {
	s.record(rec)
}

func (s *Suite) record(rec evidence.SessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

// Summary snapshots the sessions recorded so far.
func (s *Suite) Summary() *evidence.RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := time.Now()
	return &evidence.RunSummary{
		RunID:       s.runID,
		Environment: s.Config.Environment,
		StartTime:   s.started,
		EndTime:     end,
		Duration:    end.Sub(s.started),
		Sessions:    append([]evidence.SessionRecord(nil), s.records...),
	}
}

// WriteReport writes the run summary under the reports directory.
func (s *Suite) WriteReport() (jsonPath, mdPath string, err error) {
	jsonPath, mdPath, err = evidence.NewReportWriter(s.Config.Paths.Reports).WriteAll(s.Summary())
	if err != nil {
		s.Logger.Errorf("write run report: %v", err)
		return "", "", err
	}
	s.Logger.Infof("run report written to %s", jsonPath)
	return jsonPath, mdPath, nil
}

// Close disposes the API context, stops the driver and closes the logger.
// Every step runs even if an earlier one fails.
func (s *Suite) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	api := s.api
	s.api = nil
	s.mu.Unlock()

	var errs []error
	if api != nil {
		if err := api.Dispose(); err != nil {
			s.Logger.Errorf("dispose api context: %v", err)
			errs = append(errs, err)
		}
	}
	if s.driver != nil {
		if err := s.driver.Stop(); err != nil {
			s.Logger.Errorf("%v", err)
			errs = append(errs, err)
		}
	}

	s.Logger.Infof("run %s finished", s.runID)
	if err := s.Logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
