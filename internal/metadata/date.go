package metadata

import (
	"regexp"
	"strings"
	"time"
)

// isoLayout is the single output form for normalized dates.
const isoLayout = "2006-01-02T15:04:05Z"

// Legacy PDF date encodings, e.g. 20130322143113Z00'00' and
// 20130322143113+02'00'. The "D:" prefix of PDF date strings is optional.
var legacyDates = []*regexp.Regexp{
	regexp.MustCompile(`^(?:D:)?([0-9]{4})([0-9]{2})([0-9]{2})([0-9]{2})([0-9]{2})([0-9]{2})Z[0-9]{2}'[0-9]{2}'\s*$`),
	regexp.MustCompile(`^(?:D:)?([0-9]{4})([0-9]{2})([0-9]{2})([0-9]{2})([0-9]{2})([0-9]{2})\+[0-9]{2}'[0-9]{2}'\s*$`),
}

// NormalizeDate converts a raw date into YYYY-MM-DDTHH:MM:SSZ. It accepts the
// two legacy PDF encodings, whose digits are copied as-is with the offset
// dropped, and RFC 3339 timestamps, which are converted to UTC. Anything else
// yields ok=false.
func NormalizeDate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	for _, re := range legacyDates {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1] + "-" + m[2] + "-" + m[3] + "T" + m[4] + ":" + m[5] + ":" + m[6] + "Z", true
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(isoLayout), true
	}
	return "", false
}
