package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// TokenMarker is the word the gateway echoes back inside a token purchase
// description ("5 Tokens XTreino"). Legacy orders carry no explicit kind,
// so reconciliation still falls back to this marker.
const TokenMarker = "token"

func HasTokenMarker(text string) bool {
	return strings.Contains(strings.ToLower(text), TokenMarker)
}

// TokenQuantity extracts the first integer found in a purchase description.
// Descriptions without a number mean a single token.
func TokenQuantity(text string) int64 {
	start := -1
	for i, r := range text {
		if unicode.IsDigit(r) {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			if n, err := strconv.ParseInt(text[start:i], 10, 64); err == nil && n > 0 {
				return n
			}
			start = -1
		}
	}
	if start != -1 {
		if n, err := strconv.ParseInt(text[start:], 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
