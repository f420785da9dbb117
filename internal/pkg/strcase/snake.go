package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake lowercases s and inserts underscores at word boundaries.
// Initialisms stay grouped: "HTTPServer" becomes "http_server" and
// "userID" becomes "user_id".
func ToLowerSnake(s string) string {
	if s == "" {
		return ""
	}

	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + len(s)/4)

	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			afterWord := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
			endsAcronym := unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if afterWord || endsAcronym {
				b.WriteRune('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}
