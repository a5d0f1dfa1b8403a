package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearRegex       = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	seasonRegex     = regexp.MustCompile(`\s*season\s+\d+\s*`)
	partRegex       = regexp.MustCompile(`\s*part\s+\d+\s*`)
)

// CleanText removes extra whitespace and trims a string
func CleanText(text string) string {
	// Replace multiple whitespace with single space
	text = whitespaceRegex.ReplaceAllString(text, " ")
	// Trim leading/trailing whitespace
	return strings.TrimSpace(text)
}

// ExtractYear returns the first 19xx/20xx year found anywhere in text, or 0.
// Directory names like "Dune (2021)" and "2049 Blade Runner 2049 (2017)"
// both rely on this being unanchored.
func ExtractYear(text string) int {
	matches := yearRegex.FindString(text)
	if matches == "" {
		return 0
	}

	year, err := strconv.Atoi(matches)
	if err != nil {
		return 0
	}

	return year
}

// NormalizeTitle normalizes a title for comparison
// Removes special characters, converts to lowercase, removes season/part patterns
func NormalizeTitle(title string) string {
	// Convert to lowercase
	title = strings.ToLower(title)

	// Remove "season N" patterns
	title = seasonRegex.ReplaceAllString(title, " ")

	// Remove "part N" patterns
	title = partRegex.ReplaceAllString(title, " ")

	// Remove special characters except spaces and alphanumeric (including unicode)
	result := strings.Builder{}
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' || r > 127 {
			result.WriteRune(r)
		}
	}

	// Clean whitespace
	title = CleanText(result.String())
	return title
}
