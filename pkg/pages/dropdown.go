package pages

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// ErrOptionsMismatch is returned when a dropdown's options differ from the
// expected list.
var ErrOptionsMismatch = errors.New("dropdown options differ")

// SelectOption is one <option> of a <select>.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// CompareBy picks the option field CompareOptions checks.
type CompareBy int

const (
	ByLabel CompareBy = iota
	ByValue
)

// Dropdown selects and reads options of <select> elements.
type Dropdown struct {
	base *BasePage
}

func (d *Dropdown) timeout() *float64 {
	return playwright.Float(ms(d.base.timeout))
}

// usable waits for the select to be visible and enabled.
func (d *Dropdown) usable(sel playwright.Locator, step string) error {
	expect := d.base.expect.Locator(sel)
	err := expect.ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: d.timeout()})
	if err == nil {
		err = expect.ToBeEnabled(playwright.LocatorAssertionsToBeEnabledOptions{Timeout: d.timeout()})
	}
	if err != nil {
		d.base.Logger.Errorf("%s: dropdown not usable: %v", step, err)
		d.base.Screenshot(step + "_dropdown_not_usable")
		return fmt.Errorf("%s: dropdown: %w", step, err)
	}
	if err := sel.Highlight(); err != nil {
		d.base.Logger.Debugf("%s: highlight failed: %v", step, err)
	}
	return nil
}

func (d *Dropdown) selected(sel playwright.Locator, step string, values playwright.SelectOptionValues, verify func() error, what string) error {
	log := d.base.Logger
	if err := d.usable(sel, step); err != nil {
		return err
	}

	if _, err := sel.SelectOption(values, playwright.LocatorSelectOptionOptions{Timeout: d.timeout()}); err != nil {
		log.Errorf("%s: selecting %s failed: %v", step, what, err)
		d.base.Screenshot(step + "_select_failed")
		return fmt.Errorf("%s: select %s: %w", step, what, err)
	}
	if err := verify(); err != nil {
		log.Errorf("%s: %s was not applied: %v", step, what, err)
		d.base.Screenshot(step + "_select_not_applied")
		return fmt.Errorf("%s: verify %s: %w", step, what, err)
	}

	log.Infof("%s: selected %s", step, what)
	d.base.Screenshot(step + "_selected")
	return nil
}

// SelectByValue selects the option whose value attribute is value.
func (d *Dropdown) SelectByValue(sel playwright.Locator, value, step string) error {
	return d.selected(sel, step, playwright.SelectOptionValues{Values: &[]string{value}}, func() error {
		return d.base.expect.Locator(sel).ToHaveValue(value, playwright.LocatorAssertionsToHaveValueOptions{Timeout: d.timeout()})
	}, fmt.Sprintf("value %q", value))
}

// SelectByLabel selects the option showing label. When wantValue is set the
// select must end up with that value, otherwise with any value at all.
func (d *Dropdown) SelectByLabel(sel playwright.Locator, label, wantValue, step string) error {
	var want interface{} = regexp.MustCompile(".+")
	if wantValue != "" {
		want = wantValue
	}
	return d.selected(sel, step, playwright.SelectOptionValues{Labels: &[]string{label}}, func() error {
		return d.base.expect.Locator(sel).ToHaveValue(want, playwright.LocatorAssertionsToHaveValueOptions{Timeout: d.timeout()})
	}, fmt.Sprintf("label %q", label))
}

// SelectMany selects every option of a multiple select matching values, by
// value or label.
func (d *Dropdown) SelectMany(sel playwright.Locator, values []string, step string) error {
	if err := d.base.expect.Locator(sel).ToHaveAttribute("multiple", regexp.MustCompile(".*"),
		playwright.LocatorAssertionsToHaveAttributeOptions{Timeout: d.timeout()}); err != nil {
		d.base.Logger.Errorf("%s: select does not allow multiple options: %v", step, err)
		d.base.Screenshot(step + "_not_multiple")
		return fmt.Errorf("%s: not a multiple select: %w", step, err)
	}

	want := make([]interface{}, len(values))
	for i, v := range values {
		want[i] = v
	}
	return d.selected(sel, step, playwright.SelectOptionValues{ValuesOrLabels: &values}, func() error {
		return d.base.expect.Locator(sel).ToHaveValues(want, playwright.LocatorAssertionsToHaveValuesOptions{Timeout: d.timeout()})
	}, fmt.Sprintf("%d options", len(values)))
}

// Options reads every option of sel in document order.
func (d *Dropdown) Options(sel playwright.Locator, step string) ([]SelectOption, error) {
	log := d.base.Logger
	if err := d.usable(sel, step); err != nil {
		return nil, err
	}

	opts := sel.Locator("option")
	labels, err := opts.AllInnerTexts()
	if err != nil {
		log.Errorf("%s: reading option labels failed: %v", step, err)
		return nil, fmt.Errorf("%s: option labels: %w", step, err)
	}
	raw, err := opts.EvaluateAll("options => options.map(o => o.value)")
	if err != nil {
		log.Errorf("%s: reading option values failed: %v", step, err)
		return nil, fmt.Errorf("%s: option values: %w", step, err)
	}
	values, _ := raw.([]interface{})
	if len(values) != len(labels) {
		return nil, fmt.Errorf("%s: %d option labels but %d values", step, len(labels), len(values))
	}

	out := make([]SelectOption, len(labels))
	for i := range labels {
		out[i] = SelectOption{Value: fmt.Sprint(values[i]), Label: strings.TrimSpace(labels[i])}
	}
	log.Infof("%s: dropdown has %d options", step, len(out))
	d.base.Screenshot(step + "_options")
	return out, nil
}

// CompareOptions reads the options of sel and checks them, in order,
// against expected. Every difference is reported.
func (d *Dropdown) CompareOptions(sel playwright.Locator, expected []string, by CompareBy, step string) ([]SelectOption, error) {
	got, err := d.Options(sel, step)
	if err != nil {
		return nil, err
	}

	var diffs []string
	for i := 0; i < len(got) || i < len(expected); i++ {
		switch {
		case i >= len(got):
			diffs = append(diffs, fmt.Sprintf("missing %q at %d", expected[i], i))
		case i >= len(expected):
			diffs = append(diffs, fmt.Sprintf("unexpected %q at %d", field(got[i], by), i))
		case field(got[i], by) != expected[i]:
			diffs = append(diffs, fmt.Sprintf("%q at %d, expected %q", field(got[i], by), i, expected[i]))
		}
	}
	if len(diffs) > 0 {
		d.base.Logger.Errorf("%s: options differ: %s", step, strings.Join(diffs, "; "))
		d.base.Screenshot(step + "_options_differ")
		return got, fmt.Errorf("%s: %w: %s", step, ErrOptionsMismatch, strings.Join(diffs, "; "))
	}

	d.base.Logger.Infof("%s: all %d options match", step, len(got))
	return got, nil
}

func field(o SelectOption, by CompareBy) string {
	if by == ByValue {
		return o.Value
	}
	return o.Label
}
