package utils

import (
	"errors"
	"strings"
)

// LocalNumberDigits is the length of a subscriber number without country code.
const LocalNumberDigits = 10

var (
	ErrPhoneLength      = errors.New("phone number must have 10 digits")
	ErrCountryCode      = errors.New("country code must be 1 to 3 digits")
	ErrVerificationCode = errors.New("verification code must be 6 digits")
)

// DigitsOnly strips everything that is not an ASCII digit.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone turns user input into E.164.
//
// A bare number must be exactly 10 digits once non-digits are stripped and gets
// defaultCountry prepended. Input starting with "+" is read as country code plus
// a 10 digit subscriber number, so "+919876543210" and "98765 43210" agree.
func NormalizePhone(input, defaultCountry string) (string, error) {
	input = strings.TrimSpace(input)
	digits := DigitsOnly(input)

	if strings.HasPrefix(input, "+") {
		cc := len(digits) - LocalNumberDigits
		if cc < 1 || cc > 3 {
			return "", ErrPhoneLength
		}
		return "+" + digits, nil
	}

	if len(digits) != LocalNumberDigits {
		return "", ErrPhoneLength
	}
	cc := DigitsOnly(defaultCountry)
	if len(cc) < 1 || len(cc) > 3 {
		return "", ErrCountryCode
	}
	return "+" + cc + digits, nil
}

// MaskPhone hides all but the last four digits, for logs.
func MaskPhone(e164 string) string {
	if len(e164) <= 4 {
		return strings.Repeat("*", len(e164))
	}
	keep := e164[len(e164)-4:]
	prefix := ""
	if strings.HasPrefix(e164, "+") && len(e164) > 7 {
		prefix = e164[:3]
	}
	return prefix + strings.Repeat("*", len(e164)-len(prefix)-4) + keep
}

// ValidateOTP requires exactly six digits after trimming.
func ValidateOTP(code string) (string, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 || DigitsOnly(code) != code {
		return "", ErrVerificationCode
	}
	return code, nil
}
