package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML content to prevent XSS attacks.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}

// RenderText turns user text into safe HTML with line breaks kept.
func RenderText(input string) string {
	clean := Sanitize(input)
	clean = strings.ReplaceAll(clean, "\r\n", "\n")
	return strings.ReplaceAll(clean, "\n", "<br>")
}
