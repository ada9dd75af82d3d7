// Package sanitizer normalises guest-supplied reservation fields before
// validation and storage.
//
// All functions are idempotent and never return errors: unusable input comes
// back empty or unchanged so the validator can reject it with a field message.
//
// Normalization includes:
//   - Names: collapse whitespace, trim leading/trailing spaces
//   - Phone numbers: convert to E.164 (+[country][number])
//   - Emails: trim and lowercase
//   - Contact info: route to the phone or email rule by shape
package sanitizer
