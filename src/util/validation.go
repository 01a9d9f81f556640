package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	lowerRe   = regexp.MustCompile("[a-z]")
	upperRe   = regexp.MustCompile("[A-Z]")
	digitRe   = regexp.MustCompile("[0-9]")
	specialRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

func ValidateName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 1 && n <= 60
}

func ValidatePassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	return lowerRe.MatchString(password) &&
		upperRe.MatchString(password) &&
		digitRe.MatchString(password) &&
		specialRe.MatchString(password)
}
