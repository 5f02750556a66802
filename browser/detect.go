package browser

import "strings"

var loginMarkers = []string{
	"/ap/signin",
	"/account/login",
	"/login",
	"/signin",
	"/sign-in",
	"/customer/account",
	"/my-account/login",
}

var checkoutMarkers = []string{
	"/checkout",
	"/viewcart",
	"/cart",
	"/gp/buy",
	"/payment",
}

// IsLoginURL reports whether url looks like a sign-in page
func IsLoginURL(url string) bool {
	return containsAny(url, loginMarkers)
}

// IsCheckoutURL reports whether url looks like a cart or checkout page
func IsCheckoutURL(url string) bool {
	return containsAny(url, checkoutMarkers)
}

func containsAny(url string, markers []string) bool {
	lower := strings.ToLower(url)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
