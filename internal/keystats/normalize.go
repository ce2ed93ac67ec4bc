package keystats

import (
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v6"
)

// Magnitude suffixes used on the key-statistics pages.
var suffixScale = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
}

// Normalize converts a raw value token into a number. It returns an invalid
// null.Float for absent or unparseable input and never fails otherwise.
//
// Commas are thousands separators. A K/M/B suffix scales the number. A
// trailing % is dropped and the magnitude kept as written, so "12.3%"
// becomes 12.3.
func Normalize(raw string) null.Float {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" || strings.EqualFold(s, "N/A") || strings.EqualFold(s, "NaN") {
		return null.Float{}
	}

	s = strings.TrimSuffix(s, "%")
	scale := 1.0
	if s != "" {
		if m, ok := suffixScale[upper(s[len(s)-1])]; ok {
			scale = m
			s = s[:len(s)-1]
		}
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return null.Float{}
	}
	f *= scale
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
