package lines

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MarketLabel turns a provider market key into a display label, dropping the
// leading family word: "player_pass_yds" becomes "Pass Yds".
func MarketLabel(key string) string {
	parts := strings.Split(key, "_")
	words := parts[:1]
	if len(parts) > 1 {
		words = parts[1:]
	}
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = capitalize(w)
	}
	return strings.Join(out, " ")
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}

func formatPoint(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
