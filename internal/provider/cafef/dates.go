package cafef

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePattern matches day-first dates such as 02/01/2024, 2-1-24.
var datePattern = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)

var (
	dayFirstParts = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
	isoParts      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
)

// looksLikeDate reports whether s contains a date-shaped substring.
func looksLikeDate(s string) bool {
	return datePattern.MatchString(s)
}

// parseDayFirst parses the first date found in s. ISO dates (YYYY-MM-DD) are
// accepted as-is; everything else is read day/month/year. Two-digit years
// follow the strptime %y pivot (00-68 → 20xx, 69-99 → 19xx).
func parseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if m := isoParts.FindStringSubmatch(s); m != nil {
		return makeDate(m[1], m[2], m[3])
	}
	m := dayFirstParts.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year := m[3]
	if len(year) == 2 {
		y, _ := strconv.Atoi(year)
		if y < 69 {
			y += 2000
		} else {
			y += 1900
		}
		year = strconv.Itoa(y)
	}
	return makeDate(year, m[2], m[1])
}

func makeDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	mo, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil || mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}
