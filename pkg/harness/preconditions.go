package harness

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/entrhq/uitest/pkg/locators"
	"github.com/entrhq/uitest/pkg/pages"
)

// SetUpHome opens BASE_URL, dismisses any overlay and checks the home title.
func SetUpHome(p *pages.BasePage) error {
	cfg := p.Config
	if err := p.Navigation.GoTo(cfg.BaseURL, "home_setup"); err != nil {
		return fmt.Errorf("home precondition: %w", err)
	}
	if err := p.Navigation.ValidateURL(regexp.QuoteMeta(cfg.BaseURL)); err != nil {
		return fmt.Errorf("home precondition: %w", err)
	}
	p.HandleObstacles()
	if err := p.Navigation.ValidateTitle(locators.HomeTitle, "home_setup_title"); err != nil {
		return fmt.Errorf("home precondition: %w", err)
	}
	return nil
}

// SetUpRegister goes from the home page to the registration form.
func SetUpRegister(p *pages.BasePage) error {
	cfg := p.Config
	if err := p.Navigation.GoTo(cfg.BaseURL, "register_setup"); err != nil {
		return fmt.Errorf("register precondition: %w", err)
	}
	if err := p.Element.Click(p.Home.Get(locators.HomeRegisterLink), "register_setup_link"); err != nil {
		return fmt.Errorf("register precondition: %w", err)
	}
	if err := p.Navigation.ValidateURL(regexp.QuoteMeta(cfg.RegistrarURL)); err != nil {
		return fmt.Errorf("register precondition: %w", err)
	}
	p.HandleObstacles()
	if err := p.Navigation.ValidateTitle(locators.HomeTitle, "register_setup_title"); err != nil {
		return fmt.Errorf("register precondition: %w", err)
	}
	return nil
}

// HomeSmoke checks every home element is visible and the login fields start
// empty. It keeps going after a failed check and returns all failures.
func HomeSmoke(p *pages.BasePage) error {
	var errs []error

	names := append([]locators.Name{
		locators.HomePopularMake,
		locators.HomePopularModel,
		locators.HomeOverallRating,
	}, locators.HomeVisible...)
	for _, n := range p.Home.All(names...) {
		if err := p.Element.ValidateVisible(n.Locator, "home_"+string(n.Name)); err != nil {
			errs = append(errs, err)
		}
	}

	for _, name := range []locators.Name{locators.HomeUsernameField, locators.HomePasswordField} {
		if err := p.Element.ValidateEmpty(p.Home.Get(name), "home_"+string(name)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Redirect pairs a home card image with the URL clicking it leads to.
type Redirect struct {
	Name locators.Name
	URL  string
}

// HomeRedirects lists the ranking cards and their destinations.
func HomeRedirects(p *pages.BasePage) []Redirect {
	return []Redirect{
		{Name: locators.HomePopularMakeImage, URL: p.Config.MakeURL},
		{Name: locators.HomePopularModelImage, URL: p.Config.PopularURL},
		{Name: locators.HomeOverallImage, URL: p.Config.OverallURL},
	}
}

// FollowRedirect clicks the card image and checks the resulting URL.
func FollowRedirect(p *pages.BasePage, r Redirect) error {
	step := "click_" + string(r.Name)
	if err := p.Element.Click(p.Home.Get(r.Name), step); err != nil {
		return err
	}
	return p.Navigation.ValidateURL(regexp.QuoteMeta(r.URL))
}
