package fetcher

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseWeight parses a percentage such as "4.25%", "4,25 %" or "0.0425"
// (with scale 100) into a float percentage.
func ParseWeight(s string, scale float64) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "--" {
		return 0, fmt.Errorf("empty weight")
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing weight %q: %w", s, err)
	}
	if scale != 0 && scale != 1 {
		d = d.Mul(decimal.NewFromFloat(scale))
	}
	return d.Round(6).InexactFloat64(), nil
}

// ParseNumber parses a count or amount such as "1,234", "£12,345.67" or
// "1 234". Commas are always thousands separators.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "£$€")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" || s == "-" || s == "--" {
		return 0, fmt.Errorf("empty number")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", s, err)
	}
	return d.InexactFloat64(), nil
}
