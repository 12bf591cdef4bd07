package utils

import "regexp"

// phoneRe matches the supported phone format: +7 followed by ten digits.
var phoneRe = regexp.MustCompile(`^\+7\d{10}$`)

// codeRe matches a six-digit verification code.
var codeRe = regexp.MustCompile(`^\d{6}$`)

// ValidPhone reports whether the phone number is in the supported format.
func ValidPhone(phone string) bool {
	return phoneRe.MatchString(phone)
}

// ValidCode reports whether the string is a well-formed verification code.
func ValidCode(code string) bool {
	return codeRe.MatchString(code)
}
