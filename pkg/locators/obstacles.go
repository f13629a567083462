package locators

// Overlays that can cover the page and must be dismissed before interacting.
const (
	SubscriptionPopup Name = "subscription_popup"
	CookieBanner      Name = "cookie_banner"
	FloatingAd        Name = "floating_ad"
)

// ObstacleOrder is the order overlays are tried in.
var ObstacleOrder = []Name{SubscriptionPopup, CookieBanner, FloatingAd}

// ObstacleSet maps each overlay to the control that closes it.
func ObstacleSet() Set {
	return Set{
		Page: "obstacles",
		Definitions: map[Name]Definition{
			SubscriptionPopup: CSS("#newsletter-popup a.close-btn"),
			CookieBanner:      CSS("text='Aceptar cookies'"),
			FloatingAd:        CSS(".ad-container button.close"),
		},
	}
}
