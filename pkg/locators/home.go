package locators

// Home page element names.
const (
	HomeBrandLink          Name = "brand_link"
	HomeUsernameField      Name = "username_field"
	HomePasswordField      Name = "password_field"
	HomeLoginButton        Name = "login_button"
	HomeRegisterLink       Name = "register_link"
	HomeBannerHeading      Name = "banner_heading"
	HomeBannerImage        Name = "banner_image"
	HomePopularMake        Name = "popular_make"
	HomePopularMakeHeading Name = "popular_make_heading"
	HomePopularMakeImage   Name = "popular_make_image"
	HomePopularModel       Name = "popular_model"
	HomePopularModelHead   Name = "popular_model_heading"
	HomePopularModelImage  Name = "popular_model_image"
	HomeOverallRating      Name = "overall_rating"
	HomeOverallHeading     Name = "overall_rating_heading"
	HomeOverallImage       Name = "overall_rating_image"
)

// HomeTitle is the document title of the home page.
const HomeTitle = "Buggy Cars Rating"

var (
	popularMake   = CSS("div").Filtered("Popular Make Lamborghini(").At(2)
	popularModel  = CSS("div").Filtered("Popular Model Lamborghini").At(2)
	overallRating = CSS("div").Filtered("Overall Rating List of all").At(2)
)

// HomeSet covers the navbar, login form, central banner and the three
// ranking cards.
func HomeSet() Set {
	return Set{
		Page: "home",
		Definitions: map[Name]Definition{
			HomeBrandLink:     Role("link", "Buggy Rating"),
			HomeUsernameField: Role("textbox", "Login"),
			HomePasswordField: CSS("input[name='password']"),
			HomeLoginButton:   Role("button", "Login"),
			HomeRegisterLink:  Role("link", "Register"),

			HomeBannerHeading: Role("heading", HomeTitle),
			HomeBannerImage:   Role("img", "").In(Role("banner", "")),

			HomePopularMake:        popularMake,
			HomePopularMakeHeading: Role("heading", "Popular Make"),
			HomePopularMakeImage:   Role("img", "").In(popularMake),

			HomePopularModel:      popularModel,
			HomePopularModelHead:  Role("heading", "Popular Model"),
			HomePopularModelImage: Role("img", "").In(popularModel),

			HomeOverallRating:  overallRating,
			HomeOverallHeading: Role("heading", "Overall Rating"),
			HomeOverallImage:   Role("img", "").In(overallRating),
		},
	}
}

// HomeVisible is the order the home page smoke check walks its elements.
var HomeVisible = []Name{
	HomeBrandLink,
	HomeUsernameField,
	HomePasswordField,
	HomeLoginButton,
	HomeRegisterLink,
	HomeBannerHeading,
	HomeBannerImage,
	HomePopularMakeHeading,
	HomePopularMakeImage,
	HomePopularModelHead,
	HomePopularModelImage,
	HomeOverallHeading,
	HomeOverallImage,
}
