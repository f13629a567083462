package cli

import (
	"fmt"

	"github.com/gobwas/glob"

	"github.com/entrhq/uitest/pkg/harness"
	"github.com/entrhq/uitest/pkg/locators"
	"github.com/entrhq/uitest/pkg/pages"
)

// flow is one scripted check the run command drives per matrix entry.
type flow struct {
	Name        string
	Description string
	Run         func(p *pages.BasePage) error
}

func redirectFlow(name locators.Name) func(p *pages.BasePage) error {
	return func(p *pages.BasePage) error {
		if err := harness.SetUpHome(p); err != nil {
			return err
		}
		for _, r := range harness.HomeRedirects(p) {
			if r.Name == name {
				return harness.FollowRedirect(p, r)
			}
		}
		return fmt.Errorf("%w: %s", locators.ErrUnknownLocator, name)
	}
}

var flows = []flow{
	{
		Name:        "home",
		Description: "open the home page, dismiss overlays, check the title",
		Run:         harness.SetUpHome,
	},
	{
		Name:        "home_elements",
		Description: "every home element is visible and the login form is empty",
		Run: func(p *pages.BasePage) error {
			if err := harness.SetUpHome(p); err != nil {
				return err
			}
			return harness.HomeSmoke(p)
		},
	},
	{
		Name:        "home_popular_make",
		Description: "the Popular Make card leads to MAKE_URL",
		Run:         redirectFlow(locators.HomePopularMakeImage),
	},
	{
		Name:        "home_popular_model",
		Description: "the Popular Model card leads to POPULAR_URL",
		Run:         redirectFlow(locators.HomePopularModelImage),
	},
	{
		Name:        "home_overall_rating",
		Description: "the Overall Rating card leads to OVERALL_URL",
		Run:         redirectFlow(locators.HomeOverallImage),
	},
	{
		Name:        "register",
		Description: "the Register link leads to REGISTRAR_URL",
		Run:         harness.SetUpRegister,
	},
}

// selectFlows keeps flows whose name matches any pattern, in declaration
// order. No patterns selects every flow.
func selectFlows(patterns []string) ([]flow, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid test pattern '%s': %w", pattern, err)
		}
		globs = append(globs, g)
	}

	var selected []flow
	for _, f := range flows {
		if matchAny(globs, f.Name) {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no test matches %q", patterns)
	}
	return selected, nil
}
