package pages

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Dialog kinds as reported by the browser.
const (
	DialogAlert   = "alert"
	DialogConfirm = "confirm"
	DialogPrompt  = "prompt"
)

// ErrDialogMismatch is returned when a dialog opens with the wrong kind or
// message. The dialog is still answered so the page does not stay blocked.
var ErrDialogMismatch = errors.New("unexpected dialog")

// DialogCheck describes the dialog a trigger should open and how to answer it.
type DialogCheck struct {
	Kind string
	// Message must be contained in the dialog text.
	Message string
	// Dismiss answers with Cancel. Alerts are always accepted.
	Dismiss bool
	// Input is typed into an accepted prompt.
	Input string
}

// Alert expects an alert containing message.
func Alert(message string) DialogCheck {
	return DialogCheck{Kind: DialogAlert, Message: message}
}

// Confirm expects a confirm dialog containing message, answered with OK
// unless dismiss is set.
func Confirm(message string, dismiss bool) DialogCheck {
	return DialogCheck{Kind: DialogConfirm, Message: message, Dismiss: dismiss}
}

// Prompt expects a prompt containing message. Accepting types input.
func Prompt(message, input string, dismiss bool) DialogCheck {
	return DialogCheck{Kind: DialogPrompt, Message: message, Input: input, Dismiss: dismiss}
}

func (c DialogCheck) action() string {
	if c.Dismiss && c.Kind != DialogAlert {
		return "dismiss"
	}
	return "accept"
}

// Dialog clicks elements that open native alert, confirm and prompt dialogs
// and verifies what they say.
//
// Expect waits for the dialog event around the click. Listen registers a
// one-shot handler before clicking and waits for it to run. Both answer the
// dialog and return its message.
type Dialog struct {
	base *BasePage
}

func (d *Dialog) timeout() float64 {
	return ms(d.base.timeout)
}

// ready waits for trigger to be visible and enabled.
func (d *Dialog) ready(trigger playwright.Locator, step string) error {
	expect := d.base.expect.Locator(trigger)
	err := expect.ToBeVisible(playwright.LocatorAssertionsToBeVisibleOptions{Timeout: playwright.Float(d.timeout())})
	if err == nil {
		err = expect.ToBeEnabled(playwright.LocatorAssertionsToBeEnabledOptions{Timeout: playwright.Float(d.timeout())})
	}
	if err != nil {
		d.base.Logger.Errorf("%s: dialog trigger not ready: %v", step, err)
		d.base.Screenshot(step + "_trigger_not_ready")
		return fmt.Errorf("%s: dialog trigger: %w", step, err)
	}
	if err := trigger.Highlight(); err != nil {
		d.base.Logger.Debugf("%s: highlight failed: %v", step, err)
	}
	d.base.Screenshot(step + "_trigger_ready")
	return nil
}

// answer checks dlg against want and replies to it. Mismatched dialogs are
// answered too.
func (d *Dialog) answer(dlg playwright.Dialog, want DialogCheck, step string) error {
	log := d.base.Logger
	kind, message := dlg.Type(), dlg.Message()
	log.Infof("%s: %s dialog says %q", step, kind, message)

	var mismatch error
	switch {
	case want.Kind != "" && kind != want.Kind:
		mismatch = fmt.Errorf("%w: got %s, expected %s", ErrDialogMismatch, kind, want.Kind)
	case !strings.Contains(message, want.Message):
		mismatch = fmt.Errorf("%w: message %q does not contain %q", ErrDialogMismatch, message, want.Message)
	}

	var err error
	switch {
	case mismatch != nil:
		err = dlg.Accept()
	case want.action() == "dismiss":
		err = dlg.Dismiss()
	case kind == DialogPrompt:
		err = dlg.Accept(want.Input)
	default:
		err = dlg.Accept()
	}

	if mismatch != nil {
		log.Errorf("%s: %v", step, mismatch)
		return mismatch
	}
	if err != nil {
		log.Errorf("%s: could not %s %s dialog: %v", step, want.action(), kind, err)
		return fmt.Errorf("%s dialog: %w", want.action(), err)
	}
	log.Infof("%s: %s dialog answered with %s", step, kind, want.action())
	return nil
}

// Expect clicks trigger and waits for the dialog it opens.
func (d *Dialog) Expect(trigger playwright.Locator, want DialogCheck, step string) (string, error) {
	if err := d.ready(trigger, step); err != nil {
		return "", err
	}

	start := time.Now()
	ev, err := d.base.Page.ExpectEvent("dialog", func() error {
		return trigger.Click()
	}, playwright.PageExpectEventOptions{Timeout: playwright.Float(d.timeout())})
	if err != nil {
		d.base.Logger.Errorf("%s: no %s dialog after %s: %v", step, want.Kind, time.Since(start), err)
		d.base.Screenshot(step + "_dialog_missing")
		return "", fmt.Errorf("%s: wait for %s dialog: %w", step, want.Kind, err)
	}
	dlg, ok := ev.(playwright.Dialog)
	if !ok {
		return "", fmt.Errorf("%s: dialog event carried %T", step, ev)
	}
	d.base.Logger.Infof("PERFORMANCE: %s dialog opened in %s", dlg.Type(), time.Since(start))

	if err := d.answer(dlg, want, step); err != nil {
		d.base.Screenshot(step + "_dialog_failed")
		return dlg.Message(), fmt.Errorf("%s: %w", step, err)
	}
	d.base.Screenshot(step + "_dialog_ok")
	return dlg.Message(), nil
}

type dialogResult struct {
	message string
	err     error
}

// Listen registers a one-shot dialog handler, clicks trigger and waits up to
// the page timeout for the handler to run.
func (d *Dialog) Listen(trigger playwright.Locator, want DialogCheck, step string) (string, error) {
	if err := d.ready(trigger, step); err != nil {
		return "", err
	}

	done := make(chan dialogResult, 1)
	handler := func(dlg playwright.Dialog) {
		done <- dialogResult{message: dlg.Message(), err: d.answer(dlg, want, step)}
	}
	d.base.Page.Once("dialog", handler)

	start := time.Now()
	if err := trigger.Click(); err != nil {
		d.base.Page.RemoveListener("dialog", handler)
		d.base.Logger.Errorf("%s: click failed: %v", step, err)
		d.base.Screenshot(step + "_click_failed")
		return "", fmt.Errorf("%s: click dialog trigger: %w", step, err)
	}

	select {
	case res := <-done:
		d.base.Logger.Infof("PERFORMANCE: %s dialog handled in %s", want.Kind, time.Since(start))
		if res.err != nil {
			d.base.Screenshot(step + "_dialog_failed")
			return res.message, fmt.Errorf("%s: %w", step, res.err)
		}
		d.base.Screenshot(step + "_dialog_ok")
		return res.message, nil
	case <-time.After(d.base.timeout):
		d.base.Page.RemoveListener("dialog", handler)
		d.base.Logger.Errorf("%s: no %s dialog within %s", step, want.Kind, d.base.timeout)
		d.base.Screenshot(step + "_dialog_missing")
		return "", fmt.Errorf("%s: no %s dialog within %s", step, want.Kind, d.base.timeout)
	}
}
