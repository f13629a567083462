// Package locators maps named page elements to playwright locators.
//
// Each application page has a Set: a fixed table from Name to Definition.
// Definitions are plain values; nothing touches the browser until a Bound set
// resolves one through a Finder.
package locators

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Finder is the lookup capability definitions are resolved through. It is
// implemented for pages and for locators, so a definition can be scoped
// inside another.
type Finder interface {
	FindByRole(role, name string, exact bool) playwright.Locator
	FindByText(text string, exact bool) playwright.Locator
	FindByAttribute(attribute, value string) playwright.Locator
	FindByCSS(selector string) playwright.Locator
}

// PageFinder resolves from the whole page.
type PageFinder struct {
	Page playwright.Page
}

// FindByRole finds by ARIA role. An empty name matches any accessible name.
func (f PageFinder) FindByRole(role, name string, exact bool) playwright.Locator {
	opts := playwright.PageGetByRoleOptions{}
	if name != "" {
		opts.Name = name
		opts.Exact = playwright.Bool(exact)
	}
	return f.Page.GetByRole(playwright.AriaRole(role), opts)
}

func (f PageFinder) FindByText(text string, exact bool) playwright.Locator {
	return f.Page.GetByText(text, playwright.PageGetByTextOptions{Exact: playwright.Bool(exact)})
}

// FindByAttribute uses the dedicated getters for attributes playwright knows
// about and an attribute selector for everything else.
func (f PageFinder) FindByAttribute(attribute, value string) playwright.Locator {
	switch strings.ToLower(attribute) {
	case "data-testid":
		return f.Page.GetByTestId(value)
	case "placeholder":
		return f.Page.GetByPlaceholder(value)
	case "alt":
		return f.Page.GetByAltText(value)
	case "title":
		return f.Page.GetByTitle(value)
	default:
		return f.Page.Locator(attributeSelector(attribute, value))
	}
}

func (f PageFinder) FindByCSS(selector string) playwright.Locator {
	return f.Page.Locator(selector)
}

// LocatorFinder resolves inside an existing locator.
type LocatorFinder struct {
	Locator playwright.Locator
}

func (f LocatorFinder) FindByRole(role, name string, exact bool) playwright.Locator {
	opts := playwright.LocatorGetByRoleOptions{}
	if name != "" {
		opts.Name = name
		opts.Exact = playwright.Bool(exact)
	}
	return f.Locator.GetByRole(playwright.AriaRole(role), opts)
}

func (f LocatorFinder) FindByText(text string, exact bool) playwright.Locator {
	return f.Locator.GetByText(text, playwright.LocatorGetByTextOptions{Exact: playwright.Bool(exact)})
}

func (f LocatorFinder) FindByAttribute(attribute, value string) playwright.Locator {
	switch strings.ToLower(attribute) {
	case "data-testid":
		return f.Locator.GetByTestId(value)
	case "placeholder":
		return f.Locator.GetByPlaceholder(value)
	case "alt":
		return f.Locator.GetByAltText(value)
	case "title":
		return f.Locator.GetByTitle(value)
	default:
		return f.Locator.Locator(attributeSelector(attribute, value))
	}
}

func (f LocatorFinder) FindByCSS(selector string) playwright.Locator {
	return f.Locator.Locator(selector)
}

func attributeSelector(attribute, value string) string {
	return fmt.Sprintf(`[%s="%s"]`, attribute, strings.ReplaceAll(value, `"`, `\"`))
}
