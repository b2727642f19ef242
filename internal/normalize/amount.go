package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	reAmount = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)\s*([kKmMbB]|mm|MM|million|thousand|billion)?$`)
	printer  = message.NewPrinter(language.English)
)

// ParseAmount converts a loosely formatted monetary value into a number.
// Accepts numbers and strings such as "$1,000,000", "1.5M", "250k", "USD 5000".
// The second return is false when the value is unknown or unparseable.
func ParseAmount(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return ParseAmount(*v)
	case *int:
		if v == nil {
			return 0, false
		}
		return float64(*v), true
	case *string:
		if v == nil {
			return 0, false
		}
		return ParseAmount(*v)
	case string:
		return parseAmountString(v)
	default:
		return 0, false
	}
}

func parseAmountString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return 0, false
	}
	s = strings.TrimPrefix(strings.TrimPrefix(s, "USD"), "usd")
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	m := reAmount.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k", "thousand":
		f *= 1e3
	case "m", "mm", "million":
		f *= 1e6
	case "b", "billion":
		f *= 1e9
	}
	return f, true
}

// FormatMoney renders a whole-dollar amount with thousands separators, e.g. "$1,000,000".
func FormatMoney(v float64) string {
	return printer.Sprintf("$%.0f", v)
}

// nearestTier returns the tier closest to v by absolute distance.
// Tiers are scanned in ascending order; on a tie the first (lowest) tier wins.
func nearestTier(v float64, tiers []float64) (float64, float64) {
	best := tiers[0]
	bestDist := math.Abs(v - best)
	for _, t := range tiers[1:] {
		if d := math.Abs(v - t); d < bestDist {
			best, bestDist = t, d
		}
	}
	return best, bestDist
}
