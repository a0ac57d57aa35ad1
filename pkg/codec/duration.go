package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

const nanosPerSecond = 1_000_000_000

// parseISODuration parses an ISO-8601 duration or period literal
// (P[nY][nM][nW][nD][T[nH][nM][nS]]) into the driver's representation.
// Only the seconds component may carry a fraction. A leading '-' negates
// every component, matching Cypher's duration semantics.
func parseISODuration(s string) (dbtype.Duration, error) {
	rest := s
	negative := false
	if strings.HasPrefix(rest, "-") {
		negative = true
		rest = rest[1:]
	}
	if len(rest) == 0 || (rest[0] != 'P' && rest[0] != 'p') {
		return dbtype.Duration{}, fmt.Errorf("duration must start with 'P'")
	}
	rest = rest[1:]

	var d dbtype.Duration
	inTime := false
	components := 0

	for len(rest) > 0 {
		if rest[0] == 'T' || rest[0] == 't' {
			if inTime {
				return dbtype.Duration{}, fmt.Errorf("duplicate 'T' designator")
			}
			inTime = true
			rest = rest[1:]
			continue
		}

		end := 0
		for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || rest[end] == '.') {
			end++
		}
		if end == 0 || end == len(rest) {
			return dbtype.Duration{}, fmt.Errorf("malformed component at %q", rest)
		}
		number := rest[:end]
		designator := rest[end]
		rest = rest[end+1:]
		components++

		if strings.Contains(number, ".") && !(inTime && (designator == 'S' || designator == 's')) {
			return dbtype.Duration{}, fmt.Errorf("only the seconds component may have a fraction")
		}

		if inTime {
			switch designator {
			case 'H', 'h':
				n, err := strconv.ParseInt(number, 10, 64)
				if err != nil {
					return dbtype.Duration{}, err
				}
				d.Seconds += n * 3600
			case 'M', 'm':
				n, err := strconv.ParseInt(number, 10, 64)
				if err != nil {
					return dbtype.Duration{}, err
				}
				d.Seconds += n * 60
			case 'S', 's':
				secs, nanos, err := parseDecimalSeconds(number)
				if err != nil {
					return dbtype.Duration{}, err
				}
				d.Seconds += secs
				d.Nanos += nanos
			default:
				return dbtype.Duration{}, fmt.Errorf("unknown time designator %q", string(designator))
			}
			continue
		}

		n, err := strconv.ParseInt(number, 10, 64)
		if err != nil {
			return dbtype.Duration{}, err
		}
		switch designator {
		case 'Y', 'y':
			d.Months += n * 12
		case 'M', 'm':
			d.Months += n
		case 'W', 'w':
			d.Days += n * 7
		case 'D', 'd':
			d.Days += n
		default:
			return dbtype.Duration{}, fmt.Errorf("unknown date designator %q", string(designator))
		}
	}

	if components == 0 {
		return dbtype.Duration{}, fmt.Errorf("duration must have at least one component")
	}
	if negative {
		d.Months, d.Days, d.Seconds, d.Nanos = -d.Months, -d.Days, -d.Seconds, -d.Nanos
	}
	return d, nil
}

// parseDecimalSeconds splits a decimal seconds literal into whole seconds
// and nanoseconds.
func parseDecimalSeconds(s string) (int64, int, error) {
	whole, frac, hasFrac := strings.Cut(s, ".")
	secs, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if !hasFrac {
		return secs, 0, nil
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	for len(frac) < 9 {
		frac += "0"
	}
	nanos, err := strconv.Atoi(frac)
	if err != nil {
		return 0, 0, err
	}
	return secs, nanos, nil
}

// formatISODuration renders a driver duration as an ISO-8601 literal.
// The zero duration renders as "PT0S".
func formatISODuration(d dbtype.Duration) string {
	var b strings.Builder
	b.WriteByte('P')

	years := d.Months / 12
	months := d.Months % 12
	if years != 0 {
		fmt.Fprintf(&b, "%dY", years)
	}
	if months != 0 {
		fmt.Fprintf(&b, "%dM", months)
	}
	if d.Days != 0 {
		fmt.Fprintf(&b, "%dD", d.Days)
	}
	if d.Seconds != 0 || d.Nanos != 0 {
		b.WriteByte('T')
		b.WriteString(formatSeconds(d.Seconds, d.Nanos))
		b.WriteByte('S')
	}
	if b.Len() == 1 {
		return "PT0S"
	}
	return b.String()
}

// formatSeconds renders seconds plus nanoseconds as a decimal with
// trailing zeros trimmed.
func formatSeconds(seconds int64, nanos int) string {
	if nanos == 0 {
		return strconv.FormatInt(seconds, 10)
	}

	sign := ""
	if seconds < 0 || (seconds == 0 && nanos < 0) {
		sign = "-"
	}
	if seconds < 0 {
		seconds = -seconds
	}
	if nanos < 0 {
		nanos = -nanos
	}

	frac := strings.TrimRight(fmt.Sprintf("%09d", nanos), "0")
	return fmt.Sprintf("%s%d.%s", sign, seconds, frac)
}
