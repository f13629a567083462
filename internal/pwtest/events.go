package pwtest

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/playwright-community/playwright-go"
)

// ErrNoEvent is returned by ExpectEvent when the callback raised nothing.
var ErrNoEvent = errors.New("pwtest: event was not emitted")

// Dialog is a fake playwright.Dialog. Answers are recorded on the page that
// opened it as "dialog accept <text>" or "dialog dismiss".
type Dialog struct {
	playwright.Dialog

	Kind    string
	Text    string
	Default string

	page *Page
}

func (d *Dialog) Type() string         { return d.Kind }
func (d *Dialog) Message() string      { return d.Text }
func (d *Dialog) DefaultValue() string { return d.Default }

func (d *Dialog) Accept(promptText ...string) error {
	text := ""
	if len(promptText) > 0 {
		text = promptText[0]
	}
	d.page.record("dialog accept %s", text)
	return d.page.err("dialog:accept")
}

func (d *Dialog) Dismiss() error {
	d.page.record("dialog dismiss")
	return d.page.err("dialog:dismiss")
}

type listener struct {
	handler interface{}
	once    bool
}

// open delivers d to a pending ExpectEvent, then to "dialog" listeners.
// With neither, the dialog is dismissed the way the library does.
func (p *Page) open(d *Dialog) {
	p.mu.Lock()
	d.page = p
	p.calls = append(p.calls, fmt.Sprintf("dialog %s %s", d.Kind, d.Text))
	if p.waiting {
		p.caught = d
		p.waiting = false
		p.mu.Unlock()
		return
	}
	handlers := p.listeners["dialog"]
	if len(handlers) > 0 {
		kept := make([]listener, 0, len(handlers))
		for _, l := range handlers {
			if !l.once {
				kept = append(kept, l)
			}
		}
		p.listeners["dialog"] = kept
	}
	p.mu.Unlock()

	if len(handlers) == 0 {
		d.Dismiss()
		return
	}
	for _, l := range handlers {
		if fn, ok := l.handler.(func(playwright.Dialog)); ok {
			fn(d)
		}
	}
}

func (p *Page) addListener(name string, handler interface{}, once bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listeners == nil {
		p.listeners = map[string][]listener{}
	}
	p.listeners[name] = append(p.listeners[name], listener{handler: handler, once: once})
}

func (p *Page) On(name string, handler interface{}) {
	p.addListener(name, handler, false)
}

func (p *Page) Once(name string, handler interface{}) {
	p.addListener(name, handler, true)
}

func (p *Page) RemoveListener(name string, handler interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.listeners[name]) == 0 {
		return
	}
	want := reflect.ValueOf(handler).Pointer()
	kept := p.listeners[name][:0]
	for _, l := range p.listeners[name] {
		if reflect.ValueOf(l.handler).Pointer() != want {
			kept = append(kept, l)
		}
	}
	p.listeners[name] = kept
}

func (p *Page) ListenerCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.listeners[name])
}

// ExpectEvent runs cb and returns the dialog it opened. Only "dialog" is
// supported.
func (p *Page) ExpectEvent(event string, cb func() error, options ...playwright.PageExpectEventOptions) (interface{}, error) {
	if event != "dialog" {
		return nil, fmt.Errorf("pwtest: unsupported event %q", event)
	}
	p.mu.Lock()
	p.waiting, p.caught = true, nil
	p.mu.Unlock()

	err := cb()

	p.mu.Lock()
	defer p.mu.Unlock()
	d := p.caught
	p.waiting, p.caught = false, nil
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNoEvent
	}
	return d, nil
}

// Keyboard records presses as "press <key>". An error keyed
// "keyboard:<key>" fails that press.
func (p *Page) Keyboard() playwright.Keyboard {
	return &keyboard{page: p}
}

type keyboard struct {
	playwright.Keyboard
	page *Page
}

func (k *keyboard) Press(key string, options ...playwright.KeyboardPressOptions) error {
	k.page.record("press %s", key)
	return k.page.err("keyboard:" + key)
}

// Mouse records wheel scrolls as "wheel <dx> <dy>".
func (p *Page) Mouse() playwright.Mouse {
	return &mouse{page: p}
}

type mouse struct {
	playwright.Mouse
	page *Page
}

func (m *mouse) Wheel(deltaX, deltaY float64) error {
	m.page.record("wheel %g %g", deltaX, deltaY)
	return m.page.err("mouse:wheel")
}

// Evaluate records the call as "evaluate <arg>" and returns nil.
func (p *Page) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	if len(arg) > 0 {
		p.record("evaluate %v", arg[0])
	} else {
		p.record("evaluate")
	}
	return nil, p.err("evaluate")
}
