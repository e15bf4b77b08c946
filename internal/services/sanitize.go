package services

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Names and recipe text are stored as plain text, never rendered as HTML
var plainText = bluemonday.StrictPolicy()

// stripMarkup removes all markup; the entities the policy emits are decoded back
func stripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(plainText.Sanitize(s)))
}
