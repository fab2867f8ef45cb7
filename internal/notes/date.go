package notes

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
}

// FormatDisplayDate renders t as "Jan 1st, 2020".
func FormatDisplayDate(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%s %s, %d", t.Format("Jan"), humanize.Ordinal(t.Day()), t.Year())
}

// parseDate accepts epoch milliseconds (number or digit string), YAML
// timestamps and a handful of textual layouts.
func parseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case int:
		return time.UnixMilli(int64(v)).UTC(), nil
	case int64:
		return time.UnixMilli(v).UTC(), nil
	case uint64:
		return time.UnixMilli(int64(v)).UTC(), nil
	case float64:
		if v != math.Trunc(v) {
			return time.Time{}, fmt.Errorf("fractional timestamp %v", v)
		}
		return time.UnixMilli(int64(v)).UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", v)
	case nil:
		return time.Time{}, fmt.Errorf("empty date")
	default:
		return time.Time{}, fmt.Errorf("unsupported date type %T", value)
	}
}

func parseNumber(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("non-integer number %v", v)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", v)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("empty number")
	default:
		return 0, fmt.Errorf("unsupported number type %T", value)
	}
}
