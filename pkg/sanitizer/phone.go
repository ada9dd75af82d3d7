package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Numbers without a country prefix are read as US numbers unless a region
// is given.
const defaultRegion = "US"

var rePhoneShape = regexp.MustCompile(`^\+?[0-9 ()\-.]{7,20}$`)

// NormalizePhone returns the E.164 form, or "" if the input cannot be a
// phone number.
func NormalizePhone(phone string) string {
	return NormalizePhoneIn(phone, defaultRegion)
}

// NormalizePhoneIn reads national-format numbers as belonging to region.
func NormalizePhoneIn(phone, region string) string {
	phone = strings.TrimSpace(phone)
	if region == "" {
		region = defaultRegion
	}

	if phone == "" || !LooksLikePhone(phone) {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, region)
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}

func LooksLikePhone(s string) bool {
	return rePhoneShape.MatchString(strings.TrimSpace(s))
}
