package normalize

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Int strips every non-digit character and parses the remainder as an
// integer. Currency symbols, thousands separators and stray units are
// discarded; a fractional part is truncated away with them.
func Int(raw string) *int64 {
	if IsNoValue(raw) {
		return nil
	}
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return nil
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// Decimal strips every character that is not a digit or a decimal point and
// parses the remainder as an arbitrary-precision decimal. Inputs that clean
// down to nothing, or to something unparseable such as "1.2.3", yield nil.
func Decimal(raw string) *decimal.Decimal {
	if IsNoValue(raw) {
		return nil
	}
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" || cleaned == "." {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}
