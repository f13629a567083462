// Package pwtest provides in-memory playwright pages and locators for tests
// that must not launch a browser.
//
// Fakes embed the playwright interfaces they stand in for, so calling a
// method the fake does not implement panics with a nil dereference. Every
// locator carries a Path describing how it was built, e.g.
//
//	role(banner) >> role(img)
//	css(div).filter("Popular Make").nth(2)
package pwtest

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Page is a fake playwright.Page.
type Page struct {
	playwright.Page

	mu      sync.Mutex
	calls   []string
	url     string
	title   string
	history []string
	pos     int

	// Errors injects failures, keyed "<op>" for page operations and
	// "<path>:<op>" for locator operations.
	Errors map[string]error

	// Counts and Texts answer Count and AllInnerTexts, keyed by locator path.
	Counts map[string]int
	Texts  map[string][]string
	// Values answers EvaluateAll, keyed by locator path.
	Values map[string][]string

	// Dialogs opens a dialog when the locator with that path is clicked.
	Dialogs map[string]*Dialog

	listeners map[string][]listener
	waiting   bool
	caught    *Dialog
}

// NewPage returns a fake page showing about:blank with the given title.
func NewPage(title string) *Page {
	return &Page{
		url:    "about:blank",
		title:  title,
		Errors: map[string]error{},
		Counts:  map[string]int{},
		Texts:   map[string][]string{},
		Values:  map[string][]string{},
		Dialogs: map[string]*Dialog{},
	}
}

func (p *Page) record(format string, args ...interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *Page) err(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Errors[key]
}

// Calls returns every recorded operation in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// SetTitle changes the document title.
func (p *Page) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

func (p *Page) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.record("goto %s", url)
	if err := p.err("goto"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history = append(p.history[:p.pos], url)
	p.pos = len(p.history)
	p.url = url
	return nil, nil
}

func (p *Page) GoBack(options ...playwright.PageGoBackOptions) (playwright.Response, error) {
	p.record("back")
	if err := p.err("back"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos > 1 {
		p.pos--
		p.url = p.history[p.pos-1]
	}
	return nil, nil
}

func (p *Page) GoForward(options ...playwright.PageGoForwardOptions) (playwright.Response, error) {
	p.record("forward")
	if err := p.err("forward"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pos < len(p.history) {
		p.pos++
		p.url = p.history[p.pos-1]
	}
	return nil, nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Title() (string, error) {
	if err := p.err("title"); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

// Screenshot writes a placeholder image to options.Path when one is given.
func (p *Page) Screenshot(options ...playwright.PageScreenshotOptions) ([]byte, error) {
	if err := p.err("screenshot"); err != nil {
		p.record("screenshot failed")
		return nil, err
	}
	data := []byte("png")
	if len(options) > 0 && options[0].Path != nil {
		p.record("screenshot %s", *options[0].Path)
		if err := os.WriteFile(*options[0].Path, data, 0o644); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (p *Page) locator(path string) *Locator {
	return &Locator{Path: path, page: p}
}

func (p *Page) Locator(selector string, options ...playwright.PageLocatorOptions) playwright.Locator {
	return p.locator(fmt.Sprintf("css(%s)", selector))
}

func (p *Page) GetByRole(role playwright.AriaRole, options ...playwright.PageGetByRoleOptions) playwright.Locator {
	var name interface{}
	if len(options) > 0 {
		name = options[0].Name
	}
	return p.locator(rolePath(string(role), name))
}

func (p *Page) GetByText(text interface{}, options ...playwright.PageGetByTextOptions) playwright.Locator {
	return p.locator(fmt.Sprintf("text(%v)", text))
}

func (p *Page) GetByTestId(testID interface{}) playwright.Locator {
	return p.locator(fmt.Sprintf("testid(%v)", testID))
}

func (p *Page) GetByPlaceholder(text interface{}, options ...playwright.PageGetByPlaceholderOptions) playwright.Locator {
	return p.locator(fmt.Sprintf("placeholder(%v)", text))
}

func (p *Page) GetByAltText(text interface{}, options ...playwright.PageGetByAltTextOptions) playwright.Locator {
	return p.locator(fmt.Sprintf("alt(%v)", text))
}

func (p *Page) GetByTitle(text interface{}, options ...playwright.PageGetByTitleOptions) playwright.Locator {
	return p.locator(fmt.Sprintf("title(%v)", text))
}

func rolePath(role string, name interface{}) string {
	if s, ok := name.(string); ok && s != "" {
		return fmt.Sprintf("role(%s %q)", role, s)
	}
	return fmt.Sprintf("role(%s)", role)
}

// baseLocator lets Locator embed the interface while defining its own
// Locator method.
type baseLocator = playwright.Locator

// Locator is a fake playwright.Locator.
type Locator struct {
	baseLocator

	Path string
	page *Page
}

func (l *Locator) child(path string) *Locator {
	return &Locator{Path: path, page: l.page}
}

func (l *Locator) nested(path string) *Locator {
	return l.child(l.Path + " >> " + path)
}

func (l *Locator) act(op string) error {
	l.page.record("%s %s", op, l.Path)
	return l.page.err(l.Path + ":" + op)
}

func (l *Locator) Locator(selectorOrLocator interface{}, options ...playwright.LocatorLocatorOptions) playwright.Locator {
	return l.nested(fmt.Sprintf("css(%v)", selectorOrLocator))
}

func (l *Locator) GetByRole(role playwright.AriaRole, options ...playwright.LocatorGetByRoleOptions) playwright.Locator {
	var name interface{}
	if len(options) > 0 {
		name = options[0].Name
	}
	return l.nested(rolePath(string(role), name))
}

func (l *Locator) GetByText(text interface{}, options ...playwright.LocatorGetByTextOptions) playwright.Locator {
	return l.nested(fmt.Sprintf("text(%v)", text))
}

func (l *Locator) GetByTestId(testID interface{}) playwright.Locator {
	return l.nested(fmt.Sprintf("testid(%v)", testID))
}

func (l *Locator) GetByPlaceholder(text interface{}, options ...playwright.LocatorGetByPlaceholderOptions) playwright.Locator {
	return l.nested(fmt.Sprintf("placeholder(%v)", text))
}

func (l *Locator) GetByAltText(text interface{}, options ...playwright.LocatorGetByAltTextOptions) playwright.Locator {
	return l.nested(fmt.Sprintf("alt(%v)", text))
}

func (l *Locator) GetByTitle(text interface{}, options ...playwright.LocatorGetByTitleOptions) playwright.Locator {
	return l.nested(fmt.Sprintf("title(%v)", text))
}

func (l *Locator) Filter(options ...playwright.LocatorFilterOptions) playwright.Locator {
	path := l.Path
	for _, o := range options {
		if o.HasText != nil {
			path += fmt.Sprintf(".filter(%q)", fmt.Sprint(o.HasText))
		}
	}
	return l.child(path)
}

func (l *Locator) Nth(index int) playwright.Locator {
	return l.child(fmt.Sprintf("%s.nth(%d)", l.Path, index))
}

func (l *Locator) First() playwright.Locator {
	return l.child(l.Path + ".first")
}

func (l *Locator) Click(options ...playwright.LocatorClickOptions) error {
	if err := l.act("click"); err != nil {
		return err
	}
	l.page.mu.Lock()
	d := l.page.Dialogs[l.Path]
	l.page.mu.Unlock()
	if d != nil {
		l.page.open(d)
	}
	return nil
}

func (l *Locator) SelectOption(values playwright.SelectOptionValues, options ...playwright.LocatorSelectOptionOptions) ([]string, error) {
	var picked []string
	for _, v := range []*[]string{values.Values, values.Labels, values.ValuesOrLabels} {
		if v != nil {
			picked = append(picked, *v...)
		}
	}
	l.page.record("select %s %s", l.Path, strings.Join(picked, ","))
	if err := l.page.err(l.Path + ":select"); err != nil {
		return nil, err
	}
	return picked, nil
}

// EvaluateAll ignores the expression and answers from Page.Values.
func (l *Locator) EvaluateAll(expression string, arg ...interface{}) (interface{}, error) {
	if err := l.page.err(l.Path + ":evaluate"); err != nil {
		return nil, err
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	out := make([]interface{}, 0, len(l.page.Values[l.Path]))
	for _, v := range l.page.Values[l.Path] {
		out = append(out, v)
	}
	return out, nil
}

func (l *Locator) Fill(value string, options ...playwright.LocatorFillOptions) error {
	return l.act("fill")
}

func (l *Locator) Check(options ...playwright.LocatorCheckOptions) error {
	return l.act("check")
}

func (l *Locator) Uncheck(options ...playwright.LocatorUncheckOptions) error {
	return l.act("uncheck")
}

func (l *Locator) Highlight() error {
	return l.act("highlight")
}

func (l *Locator) Count() (int, error) {
	if err := l.page.err(l.Path + ":count"); err != nil {
		return 0, err
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return l.page.Counts[l.Path], nil
}

func (l *Locator) AllInnerTexts() ([]string, error) {
	if err := l.page.err(l.Path + ":texts"); err != nil {
		return nil, err
	}
	l.page.mu.Lock()
	defer l.page.mu.Unlock()
	return append([]string(nil), l.page.Texts[l.Path]...), nil
}

// Assertions is a fake playwright.PlaywrightAssertions. An assertion fails
// when the page has an error keyed "<path>:<assertion>", e.g.
// "css(#ad):visible" or "page:url".
type Assertions struct {
	playwright.PlaywrightAssertions
	page *Page
}

// NewAssertions returns assertions that consult page's injected errors.
func NewAssertions(page *Page) *Assertions {
	return &Assertions{page: page}
}

func (a *Assertions) Locator(locator playwright.Locator) playwright.LocatorAssertions {
	l, ok := locator.(*Locator)
	if !ok {
		panic(fmt.Sprintf("pwtest: foreign locator %T", locator))
	}
	return &locatorAssertions{loc: l}
}

func (a *Assertions) Page(page playwright.Page) playwright.PageAssertions {
	return &pageAssertions{page: a.page}
}

type locatorAssertions struct {
	playwright.LocatorAssertions
	loc *Locator
}

func (a *locatorAssertions) expect(what string) error {
	a.loc.page.record("expect %s %s", what, a.loc.Path)
	return a.loc.page.err(a.loc.Path + ":" + what)
}

func (a *locatorAssertions) ToBeVisible(options ...playwright.LocatorAssertionsToBeVisibleOptions) error {
	return a.expect("visible")
}

func (a *locatorAssertions) ToBeHidden(options ...playwright.LocatorAssertionsToBeHiddenOptions) error {
	return a.expect("hidden")
}

func (a *locatorAssertions) ToBeEmpty(options ...playwright.LocatorAssertionsToBeEmptyOptions) error {
	return a.expect("empty")
}

func (a *locatorAssertions) ToBeEnabled(options ...playwright.LocatorAssertionsToBeEnabledOptions) error {
	return a.expect("enabled")
}

func (a *locatorAssertions) ToBeFocused(options ...playwright.LocatorAssertionsToBeFocusedOptions) error {
	return a.expect("focused")
}

func (a *locatorAssertions) ToHaveValue(value interface{}, options ...playwright.LocatorAssertionsToHaveValueOptions) error {
	return a.expect("value")
}

func (a *locatorAssertions) ToHaveValues(values []interface{}, options ...playwright.LocatorAssertionsToHaveValuesOptions) error {
	return a.expect("values")
}

func (a *locatorAssertions) ToHaveAttribute(name string, value interface{}, options ...playwright.LocatorAssertionsToHaveAttributeOptions) error {
	return a.expect("attribute " + name)
}

func (a *locatorAssertions) ToContainText(expected interface{}, options ...playwright.LocatorAssertionsToContainTextOptions) error {
	return a.expect("text")
}

type pageAssertions struct {
	playwright.PageAssertions
	page *Page
}

func (a *pageAssertions) ToHaveURL(urlOrRegExp interface{}, options ...playwright.PageAssertionsToHaveURLOptions) error {
	a.page.record("expect url %v", urlOrRegExp)
	return a.page.err("page:url")
}

func (a *pageAssertions) ToHaveTitle(titleOrRegExp interface{}, options ...playwright.PageAssertionsToHaveTitleOptions) error {
	a.page.record("expect title %v", titleOrRegExp)
	if err := a.page.err("page:title"); err != nil {
		return err
	}
	title, _ := a.page.Title()
	if want, ok := titleOrRegExp.(string); ok && !strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(title)) {
		return fmt.Errorf("title %q does not match %q", title, want)
	}
	return nil
}
