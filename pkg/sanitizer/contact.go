package sanitizer

import "strings"

// NormalizeContact cleans a free-form contact value. Emails are lowercased,
// phone numbers become E.164, anything else is whitespace-normalised and left
// for the validator.
func NormalizeContact(contact string) string {
	return NormalizeContactIn(contact, defaultRegion)
}

// NormalizeContactIn is NormalizeContact with phone numbers read in region.
func NormalizeContactIn(contact, region string) string {
	contact = TrimAndNormalize(contact)
	switch {
	case contact == "":
		return ""
	case strings.Contains(contact, "@"):
		return NormalizeEmail(contact)
	case LooksLikePhone(contact):
		if e164 := NormalizePhoneIn(contact, region); e164 != "" {
			return e164
		}
	}
	return contact
}
