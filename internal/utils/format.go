package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Number groups the digits of a file or lump count with commas, so 6822
// prints as "6,822".
func Number(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, digits = "-", digits[1:]
	}

	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(',')
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Bytes formats a byte count with a binary unit suffix.
// Examples:
//   - Less than 1 KiB: "812 B"
//   - Less than 1 MiB: "6.7 KiB"
//   - 1 MiB or more: "18.2 MiB"
func Bytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}

	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

// Duration formats an elapsed time. Extracting a stock install takes well
// under a second, so short runs are reported in milliseconds rather than
// rounded away:
//   - Less than 1 second: "420ms"
//   - Less than 1 minute: "5.2s"
//   - Longer: "3m5s", "2h15m0s"
func Duration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

var rateUnits = []struct {
	scale  float64
	suffix string
}{
	{1e9, "G"},
	{1e6, "M"},
	{1e3, "K"},
}

// Rate formats a per-second row or file rate with a decimal suffix, for
// example "850.0", "12.3K" or "1.5M".
func Rate(rate float64) string {
	for _, u := range rateUnits {
		if rate >= u.scale {
			return strconv.FormatFloat(rate/u.scale, 'f', 1, 64) + u.suffix
		}
	}
	return strconv.FormatFloat(rate, 'f', 1, 64)
}
