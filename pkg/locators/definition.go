package locators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/playwright-community/playwright-go"
)

// ErrUnknownLocator is returned when a set has no definition for a name.
var ErrUnknownLocator = errors.New("unknown locator")

// Strategy selects which Finder method resolves a definition.
type Strategy int

const (
	ByRole Strategy = iota
	ByText
	ByAttribute
	ByCSS
)

func (s Strategy) String() string {
	switch s {
	case ByRole:
		return "role"
	case ByText:
		return "text"
	case ByAttribute:
		return "attribute"
	case ByCSS:
		return "css"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Name identifies one element within a page's locator set.
type Name string

// Definition describes how to find one element.
type Definition struct {
	Strategy Strategy

	// Role is the ARIA role for ByRole.
	Role string

	// Value is the accessible name (ByRole), text (ByText), attribute value
	// (ByAttribute) or selector (ByCSS).
	Value string

	// Attribute is the attribute name for ByAttribute.
	Attribute string

	Exact bool

	// HasText narrows the match to elements containing this text.
	HasText string

	// Nth picks one match by zero-based index.
	Nth *int

	// Within scopes the lookup inside another element.
	Within *Definition
}

// Role builds a ByRole definition.
func Role(role, name string) Definition {
	return Definition{Strategy: ByRole, Role: role, Value: name}
}

// Text builds a ByText definition.
func Text(text string) Definition {
	return Definition{Strategy: ByText, Value: text}
}

// Attribute builds a ByAttribute definition.
func Attribute(attribute, value string) Definition {
	return Definition{Strategy: ByAttribute, Attribute: attribute, Value: value}
}

// CSS builds a ByCSS definition.
func CSS(selector string) Definition {
	return Definition{Strategy: ByCSS, Value: selector}
}

// Filtered returns d narrowed to elements containing text.
func (d Definition) Filtered(text string) Definition {
	d.HasText = text
	return d
}

// At returns d narrowed to the match at index.
func (d Definition) At(index int) Definition {
	d.Nth = &index
	return d
}

// In returns d scoped inside parent.
func (d Definition) In(parent Definition) Definition {
	d.Within = &parent
	return d
}

func (d Definition) String() string {
	s := d.Strategy.String()
	switch d.Strategy {
	case ByRole:
		s += fmt.Sprintf("(%s", d.Role)
		if d.Value != "" {
			s += fmt.Sprintf(" %q", d.Value)
		}
		s += ")"
	case ByAttribute:
		s += fmt.Sprintf("(%s=%q)", d.Attribute, d.Value)
	default:
		s += fmt.Sprintf("(%q)", d.Value)
	}
	if d.HasText != "" {
		s += fmt.Sprintf(".filter(%q)", d.HasText)
	}
	if d.Nth != nil {
		s += fmt.Sprintf(".nth(%d)", *d.Nth)
	}
	if d.Within != nil {
		s = d.Within.String() + " >> " + s
	}
	return s
}

// Resolve turns d into a locator rooted at root. Resolution is lazy on the
// playwright side; no browser call happens until the locator is used.
func Resolve(root Finder, d Definition) playwright.Locator {
	finder := root
	if d.Within != nil {
		finder = LocatorFinder{Locator: Resolve(root, *d.Within)}
	}

	var loc playwright.Locator
	switch d.Strategy {
	case ByRole:
		loc = finder.FindByRole(d.Role, d.Value, d.Exact)
	case ByText:
		loc = finder.FindByText(d.Value, d.Exact)
	case ByAttribute:
		loc = finder.FindByAttribute(d.Attribute, d.Value)
	default:
		loc = finder.FindByCSS(d.Value)
	}

	if d.HasText != "" {
		loc = loc.Filter(playwright.LocatorFilterOptions{HasText: d.HasText})
	}
	if d.Nth != nil {
		loc = loc.Nth(*d.Nth)
	}
	return loc
}

// Set is the named locator table for one application page.
type Set struct {
	Page        string
	Definitions map[Name]Definition
}

// Names lists the set's names, sorted.
func (s Set) Names() []Name {
	names := make([]Name, 0, len(s.Definitions))
	for n := range s.Definitions {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Lookup returns the definition for name.
func (s Set) Lookup(name Name) (Definition, error) {
	d, ok := s.Definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s/%s", ErrUnknownLocator, s.Page, name)
	}
	return d, nil
}

// Bind attaches the set to a finder.
func (s Set) Bind(root Finder) *Bound {
	return &Bound{Set: s, root: root}
}

// Bound is a Set attached to a live page.
type Bound struct {
	Set
	root Finder
}

// Locate resolves name, or fails for a name the set does not define.
func (b *Bound) Locate(name Name) (playwright.Locator, error) {
	d, err := b.Lookup(name)
	if err != nil {
		return nil, err
	}
	return Resolve(b.root, d), nil
}

// Get resolves name and panics if the set does not define it. Use it with
// the set's own Name constants.
func (b *Bound) Get(name Name) playwright.Locator {
	loc, err := b.Locate(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// Named pairs a resolved locator with its name, for logging.
type Named struct {
	Name    Name
	Locator playwright.Locator
}

// All resolves names in order. Names the set does not define are skipped.
func (b *Bound) All(names ...Name) []Named {
	if len(names) == 0 {
		names = b.Names()
	}
	out := make([]Named, 0, len(names))
	for _, n := range names {
		loc, err := b.Locate(n)
		if err != nil {
			continue
		}
		out = append(out, Named{Name: n, Locator: loc})
	}
	return out
}
