package domain

import (
	"fmt"
	"strconv"
	"time"
)

// replicationLayouts are the timestamp shapes replication values arrive
// in. Export files use the space-separated form, REST payloads use
// RFC 3339 or RFC 1123 with a numeric zone.
var replicationLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseTime parses a replication timestamp, trying each known layout.
// Values without an explicit zone are interpreted as UTC.
func ParseTime(value string) (time.Time, error) {
	for _, layout := range replicationLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("domain: unparseable timestamp %q", value)
}

// CompareReplicationValues orders two replication values. Timestamps
// compare as instants, numbers numerically and everything else
// lexically. Returns a negative value when a sorts before b, zero when
// equal and a positive value otherwise.
func CompareReplicationValues(a, b any) int {
	as, bs := fmt.Sprint(a), fmt.Sprint(b)

	if at, err := ParseTime(as); err == nil {
		if bt, err := ParseTime(bs); err == nil {
			return at.Compare(bt)
		}
	}

	if af, aok := toFloat(a); aok {
		if bf, bok := toFloat(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}

	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
