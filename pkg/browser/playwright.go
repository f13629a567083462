package browser

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Playwright is the Launcher backed by a running Playwright driver.
type Playwright struct {
	mu sync.Mutex
	pw *playwright.Playwright
}

// StartOptions configures the Playwright driver.
type StartOptions struct {
	// Install downloads the driver and browsers before starting.
	Install bool

	// Engines limits the browsers installed. Empty installs all.
	Engines []Engine

	// Output receives driver output. Defaults to io.Discard.
	Output io.Writer
}

// Start installs (optionally) and runs the Playwright driver.
func Start(opts StartOptions) (*Playwright, error) {
	out := opts.Output
	if out == nil {
		out = io.Discard
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  out,
		Stderr:  out,
	}
	for _, e := range opts.Engines {
		runOpts.Browsers = append(runOpts.Browsers, string(e))
	}

	if opts.Install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	return &Playwright{pw: pw}, nil
}

func (p *Playwright) browserType(engine Engine) (playwright.BrowserType, error) {
	switch engine {
	case Chromium:
		return p.pw.Chromium, nil
	case Firefox:
		return p.pw.Firefox, nil
	case WebKit:
		return p.pw.WebKit, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEngine, engine)
	}
}

// Launch starts a new engine instance.
func (p *Playwright) Launch(engine Engine, opts LaunchOptions) (Instance, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pw == nil {
		return nil, fmt.Errorf("playwright is not running")
	}

	bt, err := p.browserType(engine)
	if err != nil {
		return nil, err
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		SlowMo:   playwright.Float(float64(opts.SlowMo / time.Millisecond)),
	})
	if err != nil {
		return nil, err
	}
	return &pwInstance{browser: b}, nil
}

// Device returns the emulation profile registered under name.
func (p *Playwright) Device(name string) (*playwright.DeviceDescriptor, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pw == nil {
		return nil, fmt.Errorf("playwright is not running")
	}

	d, ok := p.pw.Devices[name]
	if !ok || d == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}
	return d, nil
}

// DeviceNames lists the known emulation profiles, sorted.
func (p *Playwright) DeviceNames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pw == nil {
		return nil
	}
	names := make([]string, 0, len(p.pw.Devices))
	for name := range p.pw.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAPIContext creates a request context for API calls against baseURL.
func (p *Playwright) NewAPIContext(baseURL string, timeout time.Duration) (playwright.APIRequestContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pw == nil {
		return nil, fmt.Errorf("playwright is not running")
	}

	opts := playwright.APIRequestNewContextOptions{
		Timeout: playwright.Float(float64(timeout / time.Millisecond)),
	}
	if baseURL != "" {
		opts.BaseURL = playwright.String(baseURL)
	}
	return p.pw.Request.NewContext(opts)
}

// Stop shuts the driver down.
func (p *Playwright) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pw == nil {
		return nil
	}
	err := p.pw.Stop()
	p.pw = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

type pwInstance struct {
	browser playwright.Browser
}

func (i *pwInstance) NewContext(opts playwright.BrowserNewContextOptions) (Context, error) {
	c, err := i.browser.NewContext(opts)
	if err != nil {
		return nil, err
	}
	return &pwContext{context: c}, nil
}

func (i *pwInstance) Close() error {
	return i.browser.Close()
}

type pwContext struct {
	context playwright.BrowserContext
}

func (c *pwContext) NewPage() (Page, error) {
	p, err := c.context.NewPage()
	if err != nil {
		return nil, err
	}
	return &pwPage{page: p}, nil
}

func (c *pwContext) StartTracing() error {
	return c.context.Tracing().Start(playwright.TracingStartOptions{
		Screenshots: playwright.Bool(true),
		Snapshots:   playwright.Bool(true),
		Sources:     playwright.Bool(true),
	})
}

func (c *pwContext) StopTracing(path string) error {
	return c.context.Tracing().Stop(path)
}

func (c *pwContext) Close() error {
	return c.context.Close()
}

type pwPage struct {
	page playwright.Page
}

func (p *pwPage) Handle() playwright.Page {
	return p.page
}

func (p *pwPage) SetDefaultTimeout(ms float64) {
	p.page.SetDefaultTimeout(ms)
}

func (p *pwPage) VideoPath() (string, error) {
	video := p.page.Video()
	if video == nil {
		return "", nil
	}
	return video.Path()
}
