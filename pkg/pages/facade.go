// Package pages is the page-object layer tests drive the application through.
//
// A BasePage is built once per test from the session's page, the run's
// configuration and the shared logger. Building it is pure wiring: nothing is
// navigated, written or resolved until a helper is called.
//
//	p := pages.New(session.Page(), cfg, logger)
//	if err := p.Navigation.GoTo(cfg.BaseURL, "home"); err != nil {
//		t.Fatal(err)
//	}
//	p.HandleObstacles()
//	err := p.Element.ValidateVisible(p.Home.Get(locators.HomeLoginButton), "login_button")
package pages

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/uitest/pkg/config"
	"github.com/entrhq/uitest/pkg/evidence"
	"github.com/entrhq/uitest/pkg/locators"
	"github.com/entrhq/uitest/pkg/logging"
)

// DefaultObstacleTimeout bounds the wait for each overlay in HandleObstacles.
const DefaultObstacleTimeout = 5 * time.Second

// BasePage bundles the helpers and locator sets for one test.
type BasePage struct {
	Page   playwright.Page
	Config *config.Config
	Logger *logging.Logger

	Navigation *Navigation
	Element    *Element
	Table      *Table
	File       *File
	Dialog     *Dialog
	Dropdown   *Dropdown
	Keyboard   *Keyboard

	Home      *locators.Bound
	Obstacles *locators.Bound

	expect  playwright.PlaywrightAssertions
	timeout time.Duration
	namer   *evidence.Namer
	now     func() time.Time
}

// Option customizes a BasePage.
type Option func(*BasePage)

// WithAssertions replaces the playwright assertions helpers use.
func WithAssertions(a playwright.PlaywrightAssertions) Option {
	return func(p *BasePage) {
		p.expect = a
	}
}

// WithNamer sets the registry screenshot names are reserved in.
func WithNamer(n *evidence.Namer) Option {
	return func(p *BasePage) {
		p.namer = n
	}
}

// WithClock sets the clock used for screenshot names.
func WithClock(now func() time.Time) Option {
	return func(p *BasePage) {
		p.now = now
	}
}

// New wires a BasePage. Assertions wait up to the configured implicit timeout.
func New(page playwright.Page, cfg *config.Config, logger *logging.Logger, opts ...Option) *BasePage {
	timeout := cfg.ImplicitTimeout
	if timeout <= 0 {
		timeout = config.DefaultImplicitTimeout
	}

	p := &BasePage{
		Page:    page,
		Config:  cfg,
		Logger:  logger,
		timeout: timeout,
		namer:   evidence.DefaultNamer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.expect == nil {
		p.expect = playwright.NewPlaywrightAssertions(ms(timeout))
	}

	p.Navigation = &Navigation{base: p}
	p.Element = &Element{base: p}
	p.Table = &Table{base: p}
	p.File = &File{base: p}
	p.Dialog = &Dialog{base: p}
	p.Dropdown = &Dropdown{base: p}
	p.Keyboard = &Keyboard{base: p}

	root := locators.PageFinder{Page: page}
	p.Home = locators.HomeSet().Bind(root)
	p.Obstacles = locators.ObstacleSet().Bind(root)

	return p
}

// Timeout is the default wait for assertions.
func (p *BasePage) Timeout() time.Duration {
	return p.timeout
}

// Screenshot captures the page into the screenshot directory as
// <timestamp>_<step>.png and returns the path. Failures are logged and
// returned; callers inside helpers ignore them.
func (p *BasePage) Screenshot(step string) (string, error) {
	dir := p.Config.Paths.Screenshot
	if err := os.MkdirAll(dir, 0o755); err != nil {
		p.Logger.Errorf("screenshot %q: create %s: %v", step, dir, err)
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := p.namer.Reserve(dir, evidence.ScreenshotName(p.now(), step))
	if _, err := p.Page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err != nil {
		p.namer.Release(path)
		p.Logger.Errorf("screenshot %q failed: %v", step, err)
		return "", fmt.Errorf("screenshot %s: %w", filepath.Base(path), err)
	}

	p.Logger.Infof("screenshot saved: %s", path)
	return path, nil
}

// HandleObstacles dismisses the first known overlay found on the page.
func (p *BasePage) HandleObstacles() bool {
	return p.Element.HandleObstacles(p.Obstacles.All(locators.ObstacleOrder...), DefaultObstacleTimeout)
}

// Scroll scrolls by dx, dy pixels with the mouse wheel.
func (p *BasePage) Scroll(dx, dy float64) error {
	if err := p.Page.Mouse().Wheel(dx, dy); err != nil {
		p.Logger.Errorf("scroll by (%g, %g) failed: %v", dx, dy, err)
		return fmt.Errorf("scroll: %w", err)
	}
	p.Logger.Debugf("scrolled by (%g, %g)", dx, dy)
	return nil
}

// TouchScroll scrolls the document vertically by dy pixels from script.
// Emulated touch contexts reject wheel events in WebKit, so mobile sessions
// scroll with this instead of Scroll.
func (p *BasePage) TouchScroll(dy float64, step string) error {
	if _, err := p.Page.Evaluate("dy => window.scrollBy({top: dy, behavior: 'smooth'})", dy); err != nil {
		p.Logger.Errorf("%s: touch scroll by %g failed: %v", step, dy, err)
		p.Screenshot(step + "_touch_scroll_failed")
		return fmt.Errorf("%s: touch scroll: %w", step, err)
	}
	p.Logger.Debugf("%s: touch scrolled by %g", step, dy)
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}
