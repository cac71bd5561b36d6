// Package validation contains input validation rules shared by handlers.
package validation

import (
	"errors"
	"regexp"
)

// phonePattern is the Nepal mobile format: the +977 country prefix followed
// by exactly ten digits.
var phonePattern = regexp.MustCompile(`^\+977\d{10}$`)

const minPasswordLength = 6

// ValidatePhone checks the +977XXXXXXXXXX phone format used as the login key.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		return errors.New("Phone number must be in +977XXXXXXXXXX format")
	}
	return nil
}

// ValidatePassword enforces the minimum password length. Passwords are only
// ever stored as bcrypt hashes.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("Password must be at least 6 characters")
	}
	return nil
}

// ValidateRating checks the 1-5 feedback rating range.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return errors.New("Rating must be between 1 and 5")
	}
	return nil
}
