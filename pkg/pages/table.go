package pages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrRowNotFound is returned by FindRow when no row contains the text.
	ErrRowNotFound = errors.New("no matching row")

	// ErrHeaderMismatch is returned by ValidateHeaders.
	ErrHeaderMismatch = errors.New("table headers do not match")
)

// Table reads HTML tables. Data rows are tbody tr; headers are th.
type Table struct {
	base *BasePage
}

func (t *Table) ready(table playwright.Locator, step string) error {
	err := t.base.expect.Locator(table).ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{
		Timeout: playwright.Float(ms(t.base.timeout)),
	})
	if err != nil {
		t.base.Logger.Errorf("%s: table not visible: %v", step, err)
		t.base.Screenshot(step + "_table_not_visible")
		return fmt.Errorf("%s: table not visible: %w", step, err)
	}
	if err := table.Highlight(); err != nil {
		t.base.Logger.Debugf("%s: highlight failed: %v", step, err)
	}
	return nil
}

// Dimensions counts data rows and columns. Columns come from the header
// cells, or from the first data row when the table has no th.
func (t *Table) Dimensions(table playwright.Locator, step string) (rows, cols int, err error) {
	if err := t.ready(table, step); err != nil {
		return 0, 0, err
	}

	dataRows := table.Locator("tbody tr")
	if rows, err = dataRows.Count(); err != nil {
		return 0, 0, fmt.Errorf("%s: count rows: %w", step, err)
	}

	if cols, err = table.Locator("th").Count(); err != nil {
		return 0, 0, fmt.Errorf("%s: count headers: %w", step, err)
	}
	if cols == 0 && rows > 0 {
		if cols, err = dataRows.First().Locator("td").Count(); err != nil {
			return 0, 0, fmt.Errorf("%s: count cells: %w", step, err)
		}
	}

	t.base.Logger.Infof("%s: table has %d rows and %d columns", step, rows, cols)
	t.base.Screenshot(step + "_dimensions")
	return rows, cols, nil
}

// FindRow returns the index of the first data row containing text, compared
// case-insensitively.
func (t *Table) FindRow(table playwright.Locator, text, step string) (int, error) {
	if err := t.ready(table, step); err != nil {
		return -1, err
	}

	dataRows := table.Locator("tbody tr")
	texts, err := dataRows.AllInnerTexts()
	if err != nil {
		return -1, fmt.Errorf("%s: read rows: %w", step, err)
	}

	needle := strings.ToLower(text)
	for i, row := range texts {
		if !strings.Contains(strings.ToLower(row), needle) {
			continue
		}
		t.base.Logger.Infof("%s: %q found in row %d: %s", step, text, i, strings.Join(strings.Fields(row), " "))
		if err := dataRows.Nth(i).Highlight(); err != nil {
			t.base.Logger.Debugf("%s: highlight failed: %v", step, err)
		}
		t.base.Screenshot(step + "_row_found")
		return i, nil
	}

	t.base.Logger.Warnf("%s: %q not found in %d rows", step, text, len(texts))
	t.base.Screenshot(step + "_row_not_found")
	return -1, fmt.Errorf("%s: %q: %w", step, text, ErrRowNotFound)
}

// ValidateHeaders checks the thead header cells equal expected, in order,
// ignoring surrounding whitespace.
func (t *Table) ValidateHeaders(table playwright.Locator, expected []string, step string) error {
	if err := t.ready(table, step); err != nil {
		return err
	}

	actual, err := table.Locator("thead th").AllInnerTexts()
	if err != nil {
		return fmt.Errorf("%s: read headers: %w", step, err)
	}
	for i := range actual {
		actual[i] = strings.TrimSpace(actual[i])
	}

	if mismatch := compareHeaders(actual, expected); mismatch != "" {
		t.base.Logger.Errorf("%s: %s; actual %q, expected %q", step, mismatch, actual, expected)
		t.base.Screenshot(step + "_headers_mismatch")
		return fmt.Errorf("%s: %s: %w", step, mismatch, ErrHeaderMismatch)
	}

	t.base.Logger.Infof("%s: headers match %q", step, expected)
	t.base.Screenshot(step + "_headers_ok")
	return nil
}

func compareHeaders(actual, expected []string) string {
	if len(actual) != len(expected) {
		return fmt.Sprintf("found %d headers, expected %d", len(actual), len(expected))
	}
	for i := range expected {
		if actual[i] != strings.TrimSpace(expected[i]) {
			return fmt.Sprintf("header %d is %q, expected %q", i, actual[i], expected[i])
		}
	}
	return ""
}
