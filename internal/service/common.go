package service

import (
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ErrInvalidInput indicates a request that failed a check the validator tags cannot express.
var ErrInvalidInput = errors.New("invalid input")

// plainText strips markup from user supplied text. Entities escaped by the
// policy are decoded again; the result is plain text.
func plainText(policy *bluemonday.Policy, value string) string {
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(value)))
}

// maskEmailAddress keeps the first and last letter of the local part so logs
// can be correlated without exposing the address.
func maskEmailAddress(email string) string {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return ""
	}
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return "***"
	}
	if len(local) <= 2 {
		return local[:1] + "***@" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + "@" + domain
}
