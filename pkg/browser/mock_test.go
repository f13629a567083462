package browser

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/uitest/pkg/evidence"
	"github.com/entrhq/uitest/pkg/logging"
)

var (
	fixedNow = time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC)

	pixel5 = &playwright.DeviceDescriptor{
		UserAgent:          "Mozilla/5.0 (Linux; Android 11; Pixel 5) AppleWebKit/537.36",
		Viewport:           &playwright.Size{Width: 393, Height: 851},
		Screen:             &playwright.Size{Width: 393, Height: 851},
		DeviceScaleFactor:  2.75,
		IsMobile:           true,
		HasTouch:           true,
		DefaultBrowserType: "chromium",
	}

	iphone12 = &playwright.DeviceDescriptor{
		UserAgent:          "Mozilla/5.0 (iPhone; CPU iPhone OS 14_2 like Mac OS X)",
		Viewport:           &playwright.Size{Width: 390, Height: 664},
		Screen:             &playwright.Size{Width: 390, Height: 844},
		DeviceScaleFactor:  3,
		IsMobile:           true,
		HasTouch:           true,
		DefaultBrowserType: "webkit",
	}

	// errPanic makes an injected step panic instead of returning an error.
	errPanic = fmt.Errorf("panic")
)

// callLog records calls across all fakes of one fixture, in order.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) add(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *callLog) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

type mockLauncher struct {
	mock.Mock
	log *callLog
}

func (m *mockLauncher) Launch(engine Engine, opts LaunchOptions) (Instance, error) {
	m.log.add("launch")
	args := m.Called(engine, opts)
	inst, _ := args.Get(0).(Instance)
	return inst, args.Error(1)
}

func (m *mockLauncher) Device(name string) (*playwright.DeviceDescriptor, error) {
	args := m.Called(name)
	d, _ := args.Get(0).(*playwright.DeviceDescriptor)
	return d, args.Error(1)
}

type mockInstance struct {
	mock.Mock
	log *callLog
}

func (m *mockInstance) NewContext(opts playwright.BrowserNewContextOptions) (Context, error) {
	m.log.add("newContext")
	args := m.Called(opts)
	c, _ := args.Get(0).(Context)
	return c, args.Error(1)
}

func (m *mockInstance) Close() error {
	m.log.add("closeEngine")
	return m.Called().Error(0)
}

type mockContext struct {
	mock.Mock
	log *callLog
}

func (m *mockContext) NewPage() (Page, error) {
	m.log.add("newPage")
	args := m.Called()
	p, _ := args.Get(0).(Page)
	return p, args.Error(1)
}

func (m *mockContext) StartTracing() error {
	m.log.add("startTracing")
	return m.Called().Error(0)
}

func (m *mockContext) StopTracing(path string) error {
	m.log.add("stopTracing")
	return m.Called(path).Error(0)
}

func (m *mockContext) Close() error {
	m.log.add("closeContext")
	return m.Called().Error(0)
}

type mockPage struct {
	mock.Mock
	log *callLog
}

func (m *mockPage) Handle() playwright.Page {
	return nil
}

func (m *mockPage) SetDefaultTimeout(ms float64) {
	m.Called(ms)
}

func (m *mockPage) VideoPath() (string, error) {
	m.log.add("videoPath")
	args := m.Called()
	path, _ := args.Get(0).(string)
	return path, args.Error(1)
}

// failures maps a step key to the error it should return (or errPanic).
// Keys: launch, context, page, tracing, stopTracing, closeContext,
// closeEngine, video.
type failures map[string]error

type fixture struct {
	log      *callLog
	launcher *mockLauncher
	instance *mockInstance
	context  *mockContext
	page     *mockPage

	dir      string
	videoDir string
	traceDir string
	videoSrc string
	console  *bytes.Buffer
	logger   *logging.Logger
	namer    *evidence.Namer
	manager  *Manager

	contextOpts playwright.BrowserNewContextOptions
}

// returns configures call with success values, or with the injected failure
// for key. success always ends with the error slot.
func returns(call *mock.Call, fail failures, key string, success ...interface{}) {
	err, failing := fail[key]
	switch {
	case !failing:
		call.Return(success...)
	case err == errPanic:
		call.Run(func(mock.Arguments) { panic("injected panic in " + key) }).Return(success...)
	default:
		vals := make([]interface{}, len(success))
		vals[len(vals)-1] = err
		call.Return(vals...)
	}
	call.Maybe()
}

func newFixture(t *testing.T, fail failures) *fixture {
	t.Helper()
	return newFixtureIn(t, t.TempDir(), "a1b2c3.webm", evidence.NewNamer(), fail)
}

func newFixtureIn(t *testing.T, dir, videoFile string, namer *evidence.Namer, fail failures) *fixture {
	t.Helper()

	f := &fixture{
		log:      &callLog{},
		dir:      dir,
		videoDir: filepath.Join(dir, "video"),
		traceDir: filepath.Join(dir, "traceview"),
		console:  &bytes.Buffer{},
		namer:    namer,
	}
	require.NoError(t, os.MkdirAll(f.videoDir, 0o755))
	require.NoError(t, os.MkdirAll(f.traceDir, 0o755))
	f.videoSrc = filepath.Join(f.videoDir, videoFile)
	require.NoError(t, os.WriteFile(f.videoSrc, []byte("webm"), 0o644))

	f.launcher = &mockLauncher{log: f.log}
	f.instance = &mockInstance{log: f.log}
	f.context = &mockContext{log: f.log}
	f.page = &mockPage{log: f.log}

	f.launcher.On("Device", "Pixel 5").Return(pixel5, nil).Maybe()
	f.launcher.On("Device", "iPhone 12").Return(iphone12, nil).Maybe()
	f.launcher.On("Device", mock.Anything).Return(nil, fmt.Errorf("%w: not in registry", ErrUnknownDevice)).Maybe()

	returns(f.launcher.On("Launch", mock.Anything, mock.Anything), fail, "launch", f.instance, nil)
	returns(f.instance.On("NewContext", mock.Anything).Run(func(args mock.Arguments) {
		f.contextOpts = args.Get(0).(playwright.BrowserNewContextOptions)
	}), fail, "context", f.context, nil)
	returns(f.instance.On("Close"), fail, "closeEngine", nil)
	returns(f.context.On("NewPage"), fail, "page", f.page, nil)
	returns(f.context.On("StartTracing"), fail, "tracing", nil)
	returns(f.context.On("StopTracing", mock.Anything), fail, "stopTracing", nil)
	returns(f.context.On("Close"), fail, "closeContext", nil)
	returns(f.page.On("VideoPath"), fail, "video", f.videoSrc, nil)
	f.page.On("SetDefaultTimeout", mock.Anything).Return().Maybe()

	logger, err := logging.Provision("browser-test", logging.Options{
		ConsoleLevel: logging.LevelDebug,
		FileLevel:    logging.LevelDebug,
		Dir:          dir,
		Console:      f.console,
	})
	require.NoError(t, err)
	t.Cleanup(func() { logger.Close() })
	f.logger = logger

	f.manager = NewManager(f.launcher, logger, Options{
		SlowMo:         500 * time.Millisecond,
		DefaultTimeout: 5 * time.Second,
		VideoDir:       f.videoDir,
		TraceDir:       f.traceDir,
		VideoSize:      Viewport{Width: DefaultVideoWidth, Height: DefaultVideoHeight},
	}, WithClock(func() time.Time { return fixedNow }), WithNamer(namer))

	return f
}

func (f *fixture) logContents(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.logger.LogPath())
	require.NoError(t, err)
	return string(data)
}
