// Request-field validation rules shared by the HTTP layer and services.
//
// Each rule is an explicit function returning a descriptive error rather
// than a boolean, so handlers can reject a request with the exact reason
// before any store access happens.
package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation limits.
const (
	// MaxUserTags is the maximum number of tags a user may subscribe to.
	MaxUserTags = 5
	// MinTagLength is the minimum rune count of a single tag.
	MinTagLength = 3

	maxTitleLength   = 255
	maxContentLength = 64 << 10
)

var (
	nameRE  = regexp.MustCompile(`^[ A-Za-z]+$`)
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// The password policy requires at least one digit, one symbol, one
	// lowercase and one uppercase letter, minimum eight characters.
	passwordDigitRE  = regexp.MustCompile(`\d`)
	passwordSymbolRE = regexp.MustCompile(`[!#$%&*@^]`)
	passwordLowerRE  = regexp.MustCompile(`[a-z]`)
	passwordUpperRE  = regexp.MustCompile(`[A-Z]`)
)

// ErrInvalidPassword describes the password policy in a user-facing way.
var ErrInvalidPassword = errors.New(
	"password must be at least 8 characters with a symbol, upper and lower case letters and a number")

// ValidateName checks a display name: non-empty, letters and spaces only.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("missing name")
	}
	if !nameRE.MatchString(name) {
		return errors.New("invalid name")
	}
	return nil
}

// ValidateEmail checks the syntactic shape of an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("missing email")
	}
	if !emailRE.MatchString(email) {
		return errors.New("invalid email")
	}
	return nil
}

// ValidatePassword enforces the sign-up password policy.
func ValidatePassword(password string) error {
	if len(password) < 8 ||
		!passwordDigitRE.MatchString(password) ||
		!passwordSymbolRE.MatchString(password) ||
		!passwordLowerRE.MatchString(password) ||
		!passwordUpperRE.MatchString(password) {
		return ErrInvalidPassword
	}
	return nil
}

// NormalizeTags lower-cases, trims, and deduplicates a tag list while
// preserving first-seen order, then validates the result: at least one tag,
// at most MaxUserTags, each at least MinTagLength runes. Normalization is
// idempotent, which makes tag lookups case-insensitive by construction.
func NormalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, errors.New("missing tags")
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if len([]rune(t)) < MinTagLength {
			return nil, fmt.Errorf("tag %q is too short (minimum %d characters)", t, MinTagLength)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) > MaxUserTags {
		return nil, fmt.Errorf("too many tags (maximum %d)", MaxUserTags)
	}
	return out, nil
}

// ValidateTitle checks a post title: non-empty, bounded length.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errors.New("missing title")
	}
	if len(title) > maxTitleLength {
		return fmt.Errorf("title too long (maximum %d bytes)", maxTitleLength)
	}
	return nil
}

// ValidateContent checks post or comment body text.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return errors.New("missing content")
	}
	if len(content) > maxContentLength {
		return fmt.Errorf("content too long (maximum %d bytes)", maxContentLength)
	}
	return nil
}
