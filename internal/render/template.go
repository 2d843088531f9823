package render

import (
	"regexp"
	"time"
)

var templateVarRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateContext contains values for template variable substitution.
type TemplateContext struct {
	Date time.Time
}

// ExpandTemplateVariables replaces template variables in the watermark text.
// The text is expanded once per request so every page and tile carries the
// same value.
//
// Supported variables:
//   - {{Date}} - Date (YYYY-MM-DD format)
//   - {{Time}} - Time of day (HH:MM)
//   - {{Year}} - Four digit year
func ExpandTemplateVariables(text string, ctx TemplateContext) string {
	date := ctx.Date
	if date.IsZero() {
		date = time.Now()
	}
	return templateVarRegex.ReplaceAllStringFunc(text, func(match string) string {
		switch match[2 : len(match)-2] {
		case "Date":
			return date.Format("2006-01-02")
		case "Time":
			return date.Format("15:04")
		case "Year":
			return date.Format("2006")
		default:
			return match // Keep unknown variables as-is
		}
	})
}
