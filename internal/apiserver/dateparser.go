package apiserver

import (
	"fmt"
	"strconv"
	"time"

	dps "github.com/markusmobius/go-dateparser"
)

// parseSince parses the optional since filter, supporting both Unix
// timestamps in seconds and human-readable dates ("2 hours ago",
// "yesterday"). An empty string means no filter.
func parseSince(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}

	// First, try parsing as a Unix timestamp
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if unix < 0 {
			return time.Time{}, fmt.Errorf("since must be non-negative")
		}
		return time.Unix(unix, 0), nil
	}

	// If not a valid integer, try parsing as a human-readable date
	parser := dps.Parser{}
	cfg := &dps.Configuration{
		// Use CurrentPeriod so dates like "March" resolve to the
		// current period, which reads naturally in a feed filter
		PreferredDateSource: dps.CurrentPeriod,
	}

	parsed, err := parser.Parse(cfg, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("since must be a valid Unix timestamp or human-readable date: %v", err)
	}

	if parsed.IsZero() {
		return time.Time{}, fmt.Errorf("since could not be parsed as a valid date: %s", raw)
	}

	return parsed.Time, nil
}
