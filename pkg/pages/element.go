package pages

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/uitest/pkg/locators"
)

// Element validates and interacts with single elements. Each helper waits up
// to the page timeout, highlights the element and screenshots the outcome.
type Element struct {
	base *BasePage
}

func (e *Element) timeout() *float64 {
	return playwright.Float(ms(e.base.timeout))
}

// check runs assertion and records the result as <step>_<label> or
// <step>_NOT_<label>.
func (e *Element) check(step, label string, assertion func() error) error {
	log := e.base.Logger
	log.Infof("%s: expecting %s (timeout %s)", step, label, e.base.timeout)

	start := time.Now()
	if err := assertion(); err != nil {
		log.Warnf("%s: not %s after %s: %v", step, label, time.Since(start), err)
		e.base.Screenshot(step + "_NOT_" + label)
		return fmt.Errorf("%s: expected %s: %w", step, label, err)
	}

	log.Infof("PERFORMANCE: %s became %s in %s", step, label, time.Since(start))
	e.base.Screenshot(step + "_" + label)
	return nil
}

func (e *Element) highlight(loc playwright.Locator, step string) {
	if err := loc.Highlight(); err != nil {
		e.base.Logger.Debugf("%s: highlight failed: %v", step, err)
	}
}

// ValidateVisible waits for loc to be visible.
func (e *Element) ValidateVisible(loc playwright.Locator, step string) error {
	return e.check(step, "visible", func() error {
		if err := e.base.expect.Locator(loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: e.timeout()}); err != nil {
			return err
		}
		e.highlight(loc, step)
		return nil
	})
}

// ValidateHidden waits for loc to be hidden or detached.
func (e *Element) ValidateHidden(loc playwright.Locator, step string) error {
	return e.check(step, "hidden", func() error {
		return e.base.expect.Locator(loc).ToBeHidden(playwright.LocatorAssertionsToBeHiddenOptions{Timeout: e.timeout()})
	})
}

// ValidateEmpty waits for loc to have no text or value.
func (e *Element) ValidateEmpty(loc playwright.Locator, step string) error {
	return e.check(step, "empty", func() error {
		e.highlight(loc, step)
		return e.base.expect.Locator(loc).ToBeEmpty(playwright.LocatorAssertionsToBeEmptyOptions{Timeout: e.timeout()})
	})
}

// ValidateText waits for loc to contain text.
func (e *Element) ValidateText(loc playwright.Locator, text, step string) error {
	return e.check(step, "text", func() error {
		e.highlight(loc, step)
		return e.base.expect.Locator(loc).ToContainText(text, playwright.LocatorAssertionsToContainTextOptions{Timeout: e.timeout()})
	})
}

// interact waits for loc to be visible, then runs action.
func (e *Element) interact(loc playwright.Locator, step, verb string, action func() error) error {
	log := e.base.Logger

	if err := e.base.expect.Locator(loc).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: e.timeout()}); err != nil {
		log.Errorf("%s: cannot %s, element not visible: %v", step, verb, err)
		e.base.Screenshot(step + "_" + verb + "_not_visible")
		return fmt.Errorf("%s: %s: %w", step, verb, err)
	}
	e.highlight(loc, step)

	if err := action(); err != nil {
		log.Errorf("%s: %s failed: %v", step, verb, err)
		e.base.Screenshot(step + "_" + verb + "_failed")
		return fmt.Errorf("%s: %s: %w", step, verb, err)
	}

	log.Infof("%s: %s done", step, verb)
	e.base.Screenshot(step + "_" + verb)
	return nil
}

// Click clicks loc once it is visible.
func (e *Element) Click(loc playwright.Locator, step string) error {
	return e.interact(loc, step, "click", func() error {
		return loc.Click(playwright.LocatorClickOptions{Timeout: e.timeout()})
	})
}

// Fill replaces the content of an input.
func (e *Element) Fill(loc playwright.Locator, value, step string) error {
	return e.interact(loc, step, "fill", func() error {
		return loc.Fill(value, playwright.LocatorFillOptions{Timeout: e.timeout()})
	})
}

// Check ticks a checkbox or radio button.
func (e *Element) Check(loc playwright.Locator, step string) error {
	return e.interact(loc, step, "check", func() error {
		return loc.Check(playwright.LocatorCheckOptions{Timeout: e.timeout()})
	})
}

// Uncheck clears a checkbox.
func (e *Element) Uncheck(loc playwright.Locator, step string) error {
	return e.interact(loc, step, "uncheck", func() error {
		return loc.Uncheck(playwright.LocatorUncheckOptions{Timeout: e.timeout()})
	})
}

// HandleObstacles tries each candidate in order and clicks the first one that
// becomes visible within timeout. Only one overlay is dismissed per call.
// Absent or unclickable candidates are logged and skipped, never returned.
func (e *Element) HandleObstacles(candidates []locators.Named, timeout time.Duration) bool {
	log := e.base.Logger
	log.Infof("looking for overlays covering the page")

	for _, c := range candidates {
		err := e.base.expect.Locator(c.Locator).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
			Timeout: playwright.Float(ms(timeout)),
		})
		if err != nil {
			log.Debugf("overlay %s not present", c.Name)
			continue
		}

		log.Infof("overlay %s detected, closing it", c.Name)
		if err := c.Locator.Click(); err != nil {
			log.Warnf("could not close overlay %s: %v", c.Name, err)
			continue
		}
		log.Infof("overlay %s closed", c.Name)
		return true
	}

	log.Infof("no known overlays found")
	return false
}
