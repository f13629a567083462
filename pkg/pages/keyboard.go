package pages

import (
	"fmt"

	"github.com/playwright-community/playwright-go"
)

// Keyboard moves focus with Tab and Shift+Tab.
type Keyboard struct {
	base *BasePage
}

func (k *Keyboard) press(key, step string) error {
	if err := k.base.Page.Keyboard().Press(key); err != nil {
		k.base.Logger.Errorf("%s: pressing %s failed: %v", step, key, err)
		k.base.Screenshot(step + "_press_failed")
		return fmt.Errorf("%s: press %s: %w", step, key, err)
	}
	k.base.Logger.Infof("%s: pressed %s", step, key)
	return nil
}

func (k *Keyboard) focus(key string, want playwright.Locator, step string) error {
	if err := k.press(key, step); err != nil {
		return err
	}
	err := k.base.expect.Locator(want).ToBeFocused(playwright.LocatorAssertionsToBeFocusedOptions{
		Timeout: playwright.Float(ms(k.base.timeout)),
	})
	if err != nil {
		k.base.Logger.Errorf("%s: focus did not land on the expected element after %s: %v", step, key, err)
		k.base.Screenshot(step + "_focus_NOT_ok")
		return fmt.Errorf("%s: focus after %s: %w", step, key, err)
	}
	k.base.Logger.Infof("%s: focus moved as expected after %s", step, key)
	k.base.Screenshot(step + "_focus_ok")
	return nil
}

// Tab presses Tab.
func (k *Keyboard) Tab(step string) error {
	return k.press("Tab", step)
}

// ShiftTab presses Shift+Tab.
func (k *Keyboard) ShiftTab(step string) error {
	return k.press("Shift+Tab", step)
}

// TabTo presses Tab and checks that want has focus.
func (k *Keyboard) TabTo(want playwright.Locator, step string) error {
	return k.focus("Tab", want, step)
}

// ShiftTabTo presses Shift+Tab and checks that want has focus.
func (k *Keyboard) ShiftTabTo(want playwright.Locator, step string) error {
	return k.focus("Shift+Tab", want, step)
}
