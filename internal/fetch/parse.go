package fetch

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"fetchq/internal/model"
)

var (
	rePct  = regexp.MustCompile(`^\[download\]\s+([0-9]+(?:\.[0-9]+)?)%`)
	reRate = regexp.MustCompile(`\bat\s+([^\s]+)`)
	reETA  = regexp.MustCompile(`\bETA\s+([0-9:]+)`)
	reSize = regexp.MustCompile(`\bof\s+~?\s*([0-9.]+)([KMGT]i?B)\b`)
	reDest = regexp.MustCompile(`^\[download\]\s+Destination:\s+(.+)$`)
	reIDs  = regexp.MustCompile(`\s*\[[A-Za-z0-9_-]{6,}\]$`)
)

// ParseProgressLine extracts a progress sample from a yt-dlp --newline
// download line. size is 0 when the line carries no total.
func ParseProgressLine(line string) (sample model.ProgressSample, size int64, ok bool) {
	l := strings.TrimSpace(line)
	m := rePct.FindStringSubmatch(l)
	if len(m) < 2 {
		return model.ProgressSample{}, 0, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return model.ProgressSample{}, 0, false
	}
	sample.Percent = pct
	if m := reRate.FindStringSubmatch(l); len(m) > 1 {
		sample.Rate = m[1]
	}
	if m := reETA.FindStringSubmatch(l); len(m) > 1 {
		sample.ETA = m[1]
	}
	if m := reSize.FindStringSubmatch(l); len(m) > 2 {
		size = sizeToBytes(m[1], m[2])
	}
	return sample, size, true
}

// ParseDestinationTitle resolves the media title from a yt-dlp destination
// line, stripping the directory, extension, and trailing media ID.
func ParseDestinationTitle(line string) (string, bool) {
	m := reDest.FindStringSubmatch(strings.TrimSpace(line))
	if len(m) < 2 {
		return "", false
	}
	name := filepath.Base(strings.TrimSpace(m[1]))
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = reIDs.ReplaceAllString(name, "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	return name, true
}

// IsProxyError reports whether an output line looks like blocking or rate
// limiting tied to the egress path rather than the content itself.
func IsProxyError(line string) bool {
	text := strings.ToLower(line)
	hints := []string{
		"http error 429",
		"too many requests",
		"rate limit",
		"http error 403",
		"access denied",
		"unable to connect to proxy",
		"proxy error",
		"tunnel connection failed",
		"connection refused",
		"connection reset",
	}
	for _, h := range hints {
		if strings.Contains(text, h) {
			return true
		}
	}
	return false
}

func sizeToBytes(num, unit string) int64 {
	val, err := strconv.ParseFloat(num, 64)
	if err != nil || val <= 0 {
		return 0
	}
	var mult float64
	switch strings.ToUpper(unit) {
	case "KB":
		mult = 1000
	case "KIB":
		mult = 1024
	case "MB":
		mult = 1000 * 1000
	case "MIB":
		mult = 1024 * 1024
	case "GB":
		mult = 1000 * 1000 * 1000
	case "GIB":
		mult = 1024 * 1024 * 1024
	case "TB":
		mult = 1000 * 1000 * 1000 * 1000
	case "TIB":
		mult = 1024 * 1024 * 1024 * 1024
	default:
		return 0
	}
	return int64(val * mult)
}
