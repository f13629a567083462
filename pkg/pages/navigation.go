package pages

import (
	"fmt"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Navigation moves the page between URLs and checks where it landed.
type Navigation struct {
	base *BasePage
}

// GoTo loads url and waits for DOMContentLoaded.
func (n *Navigation) GoTo(url, step string) error {
	log := n.base.Logger
	log.Infof("navigating to %s", url)

	start := time.Now()
	waitUntil := playwright.WaitUntilState("domcontentloaded")
	_, err := n.base.Page.Goto(url, playwright.PageGotoOptions{WaitUntil: &waitUntil})
	elapsed := time.Since(start)

	if err != nil {
		log.Errorf("navigation to %s failed after %s: %v", url, elapsed, err)
		n.base.Screenshot(step + "_navigation_failed")
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	log.Infof("PERFORMANCE: navigation to %s took %s", url, elapsed)
	n.base.Screenshot(step + "_navigation_ok")
	return nil
}

// ValidateURL waits until the page URL matches the regular expression pattern.
func (n *Navigation) ValidateURL(pattern string) error {
	log := n.base.Logger

	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Errorf("invalid URL pattern %q: %v", pattern, err)
		return fmt.Errorf("compile URL pattern: %w", err)
	}

	start := time.Now()
	err = n.base.expect.Page(n.base.Page).ToHaveURL(re, playwright.PageAssertionsToHaveURLOptions{
		Timeout: playwright.Float(ms(n.base.timeout)),
	})
	if err != nil {
		log.Errorf("URL %s does not match %q after %s: %v", n.base.Page.URL(), pattern, time.Since(start), err)
		return fmt.Errorf("validate URL %q: %w", pattern, err)
	}

	log.Infof("URL %s matches %q", n.base.Page.URL(), pattern)
	return nil
}

// ValidateTitle waits until the document title equals title.
func (n *Navigation) ValidateTitle(title, step string) error {
	log := n.base.Logger

	err := n.base.expect.Page(n.base.Page).ToHaveTitle(title, playwright.PageAssertionsToHaveTitleOptions{
		Timeout: playwright.Float(ms(n.base.timeout)),
	})
	if err != nil {
		actual, _ := n.base.Page.Title()
		log.Errorf("title is %q, expected %q: %v", actual, title, err)
		n.base.Screenshot(step + "_title_mismatch")
		return fmt.Errorf("validate title %q: %w", title, err)
	}

	log.Infof("title is %q", title)
	n.base.Screenshot(step + "_title_ok")
	return nil
}

// Back goes one entry back in history.
func (n *Navigation) Back(step string) error {
	return n.history("back", step, func() (playwright.Response, error) {
		return n.base.Page.GoBack()
	})
}

// Forward goes one entry forward in history.
func (n *Navigation) Forward(step string) error {
	return n.history("forward", step, func() (playwright.Response, error) {
		return n.base.Page.GoForward()
	})
}

func (n *Navigation) history(direction, step string, move func() (playwright.Response, error)) error {
	log := n.base.Logger
	from := n.base.Page.URL()

	if _, err := move(); err != nil {
		log.Errorf("going %s from %s failed: %v", direction, from, err)
		n.base.Screenshot(step + "_" + direction + "_failed")
		return fmt.Errorf("go %s: %w", direction, err)
	}

	log.Infof("went %s from %s to %s", direction, from, n.base.Page.URL())
	n.base.Screenshot(step + "_" + direction)
	return nil
}
