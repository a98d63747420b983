package panel

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Coerce parses raw form input into the number a numeric field submits.
// Leading whitespace is skipped and the longest numeric prefix is read, so
// "12abc" is 12. Floats accept a fraction and exponent; ints stop at the first
// non-digit and also read a 0x hex prefix. Input without a numeric prefix, or
// one that is non-finite or overflows int64, becomes 0.
func Coerce(kind NumberKind, raw string) any {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	if kind == NumberInt {
		return intPrefix(s)
	}
	return floatPrefix(s)
}

func floatPrefix(s string) float64 {
	n := floatPrefixLen(s)
	if n == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:n], 64)
	if err != nil || f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func floatPrefixLen(s string) int {
	i := skipSign(s, 0)
	start := i
	i = skipDigits(s, i, 10)
	whole := i - start
	if i < len(s) && s[i] == '.' {
		j := skipDigits(s, i+1, 10)
		if whole == 0 && j == i+1 {
			return 0
		}
		i = j
	} else if whole == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := skipSign(s, i+1)
		if k := skipDigits(s, j, 10); k > j {
			i = k
		}
	}
	return i
}

func intPrefix(s string) int64 {
	i := skipSign(s, 0)
	neg := i > 0 && s[0] == '-'
	base := 10
	if len(s)-i >= 2 && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') {
		base = 16
		i += 2
	}
	end := skipDigits(s, i, base)
	if end == i {
		return 0
	}
	n, err := strconv.ParseInt(s[i:end], base, 64)
	if err != nil {
		return 0
	}
	if neg {
		n = -n
	}
	return n
}

func skipSign(s string, i int) int {
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		return i + 1
	}
	return i
}

func skipDigits(s string, i, base int) int {
	for i < len(s) && isDigit(s[i], base) {
		i++
	}
	return i
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16:
		lower := c | 0x20
		return lower >= 'a' && lower <= 'f'
	}
	return false
}

// BuildPayload turns a string draft into the JSON body for the listed fields.
// Fields missing from the draft are sent as empty strings (or 0 when numeric).
func (c EntityConfig) BuildPayload(fields []string, draft map[string]string) map[string]any {
	payload := make(map[string]any, len(fields))
	for _, field := range fields {
		raw := draft[field]
		if kind, ok := c.Numeric[field]; ok {
			payload[field] = Coerce(kind, raw)
			continue
		}
		payload[field] = raw
	}
	return payload
}
