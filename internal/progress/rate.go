package progress

import (
	"regexp"
	"strconv"
	"strings"
)

var rateExpr = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([kmgt]?i?b)/s$`)

// ParseRateMBs converts a collaborator rate string into MB/s.
// Examples: 12.3MiB/s, 700KiB/s, 5.1MB/s, 40.2KB/s.
// Unparseable input contributes 0 and never fails.
func ParseRateMBs(s string) float64 {
	x := strings.TrimSpace(strings.ToLower(s))
	m := rateExpr.FindStringSubmatch(x)
	if len(m) < 3 {
		return 0
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil || val <= 0 {
		return 0
	}
	switch m[2] {
	case "b":
		return val / 1000_000
	case "kib":
		return val * 1024 / 1000_000
	case "kb":
		return val * 1000 / 1000_000
	case "mib":
		return val * 1024 * 1024 / 1000_000
	case "mb":
		return val
	case "gib":
		return val * 1024 * 1024 * 1024 / 1000_000
	case "gb":
		return val * 1000
	default:
		return 0
	}
}
