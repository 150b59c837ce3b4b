package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Round2 rounds half away from zero to centavo precision.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatPeso renders an amount as "PHP 1,234.50". gofpdf core fonts have no peso glyph.
func FormatPeso(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	return fmt.Sprintf("%sPHP %s.%02d", sign, formatThousand(cents/100), cents%100)
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
