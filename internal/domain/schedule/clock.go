package schedule

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ClockTime is a minute of the day in [0, 1440)
type ClockTime int

const minutesPerDay = 24 * 60

// ParseClock accepts "HH:MM", "HH:MM:SS" and "hh:mm AM/PM". Seconds are truncated.
func ParseClock(s string) (ClockTime, error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, fmt.Errorf("%w: empty clock time", ErrInvalidClockTime)
	}

	meridiem := ""
	if strings.HasSuffix(raw, "AM") || strings.HasSuffix(raw, "PM") {
		meridiem = raw[len(raw)-2:]
		raw = strings.TrimSpace(raw[:len(raw)-2])
	}

	parts := strings.Split(raw, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 2 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
	}

	switch meridiem {
	case "":
		if hour < 0 || hour > 23 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
	default:
		if hour < 1 || hour > 12 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
		// 12 AM is midnight, 12 PM is noon
		if hour == 12 {
			hour = 0
		}
		if meridiem == "PM" {
			hour += 12
		}
	}

	return ClockTime(hour*60 + minute), nil
}

func MustParseClock(s string) ClockTime {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the minute of day of t in loc
func ClockOf(t time.Time, loc *time.Location) ClockTime {
	local := t.In(loc)
	return ClockTime(local.Hour()*60 + local.Minute())
}

func (c ClockTime) Valid() bool {
	return c >= 0 && c < minutesPerDay
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) Add(minutes int) ClockTime {
	return c + ClockTime(minutes)
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidClockTime, string(data))
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
