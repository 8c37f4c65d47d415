package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/wellcomecollection/enricher/internal/record"
)

var (
	yearPattern    = regexp.MustCompile(`^(\d{4})$`)
	rangePattern   = regexp.MustCompile(`^(\d{4})\s*[-–/]\s*(\d{4})$`)
	shortRangeRe   = regexp.MustCompile(`^(\d{4})\s*[-–/]\s*(\d{2})$`)
	decadePattern  = regexp.MustCompile(`^(\d{3})-\??$`)
	monthDayRe     = regexp.MustCompile(`^(\d{4})-(\d{2})(?:-(\d{2}))?$`)
	embeddedYearRe = regexp.MustCompile(`\b(1[0-9]{3}|20[0-2][0-9])\b`)
)

// ParseDate converts a free-text date label into a structured date.
// Handles plain years ("1920"), approximations ("c. 1920", "[1920]"),
// ranges ("1920-1925", "1920-25"), decades ("192-?"), and ISO-style
// year-month-day forms. Returns ok=false for anything it cannot read.
func ParseDate(label string) (record.WorkDate, bool) {
	s := strings.TrimSpace(label)
	s = strings.Trim(s, "[].")
	s = strings.TrimSpace(s)

	// Strip approximation prefixes.
	for _, prefix := range []string{"circa", "ca.", "ca", "c.", "c", "approximately", "approx."} {
		if strings.HasPrefix(strings.ToLower(s), prefix+" ") {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}

	if m := yearPattern.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		return record.WorkDate{Year: year}, true
	}

	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			d := record.WorkDate{Year: year, Month: month}
			if m[3] != "" {
				day, _ := strconv.Atoi(m[3])
				if day >= 1 && day <= 31 {
					d.Day = day
				}
			}
			return d, true
		}
	}

	if m := rangePattern.FindStringSubmatch(s); m != nil {
		from, _ := strconv.Atoi(m[1])
		to, _ := strconv.Atoi(m[2])
		if to >= from {
			return record.WorkDate{FromYear: from, ToYear: to}, true
		}
	}

	// "1920-25" style short ranges share the century of the start year.
	if m := shortRangeRe.FindStringSubmatch(s); m != nil {
		from, _ := strconv.Atoi(m[1])
		suffix, _ := strconv.Atoi(m[2])
		to := (from/100)*100 + suffix
		if to >= from {
			return record.WorkDate{FromYear: from, ToYear: to}, true
		}
	}

	// "192-?" decade forms become a ten-year range.
	if m := decadePattern.FindStringSubmatch(s); m != nil {
		decade, _ := strconv.Atoi(m[1])
		from := decade * 10
		return record.WorkDate{FromYear: from, ToYear: from + 9}, true
	}

	// Fall back to a single plausible year embedded in prose, e.g.
	// "London, 1887" or "printed in the year 1795".
	if ms := embeddedYearRe.FindAllString(s, 2); len(ms) == 1 {
		year, _ := strconv.Atoi(ms[0])
		return record.WorkDate{Year: year}, true
	}

	return record.WorkDate{}, false
}
