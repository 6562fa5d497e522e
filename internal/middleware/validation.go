package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateMessageContent validates chat message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("message cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateEmail performs a shallow shape check; deliverability is not our job.
func ValidateEmail(email string) error {
	if len(email) == 0 {
		return errors.New("email cannot be empty")
	}
	if len(email) > 254 {
		return errors.New("email exceeds maximum length")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return errors.New("email is malformed")
	}
	return nil
}

// ValidateCarName validates a lease title.
func ValidateCarName(name string) error {
	if len(name) > 256 {
		return errors.New("car name exceeds maximum length")
	}
	if !utf8.ValidString(name) {
		return errors.New("car name must be valid UTF-8")
	}
	return nil
}
