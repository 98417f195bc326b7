package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERVAL
// ══════════════════════════════════════════════════════════════════════════════

// IntervalSchedule runs a job at a fixed interval.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a new IntervalSchedule.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{Interval: interval}
}

// Next returns the next scheduled time.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

func (s *IntervalSchedule) String() string {
	return "@every " + s.Interval.String()
}

// ══════════════════════════════════════════════════════════════════════════════
// CRON
// ══════════════════════════════════════════════════════════════════════════════

// CronSchedule is a standard 5-field cron expression:
// minute hour day-of-month month day-of-week (0 = Sunday).
//
// Each field accepts *, n, n-m and comma-separated lists of those, any of
// them with a /step suffix. Examples:
//   - "0 3 * * *"     every day at 03:00
//   - "*/15 * * * *"  every 15 minutes
//   - "0 9 * * 1-5"   weekdays at 09:00
type CronSchedule struct {
	raw      string
	minutes  fieldSet
	hours    fieldSet
	days     fieldSet
	months   fieldSet
	weekdays fieldSet
}

// fieldSet marks allowed values; index is the value itself.
type fieldSet [60]bool

// ParseCron parses a cron expression.
func ParseCron(expr string) (*CronSchedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("invalid cron expression %q: expected 5 fields, got %d", expr, len(fields))
	}

	cs := &CronSchedule{raw: expr}
	specs := []struct {
		name     string
		dst      *fieldSet
		min, max int
	}{
		{"minute", &cs.minutes, 0, 59},
		{"hour", &cs.hours, 0, 23},
		{"day", &cs.days, 1, 31},
		{"month", &cs.months, 1, 12},
		{"weekday", &cs.weekdays, 0, 6},
	}
	for i, spec := range specs {
		set, err := parseCronField(fields[i], spec.min, spec.max)
		if err != nil {
			return nil, fmt.Errorf("invalid %s field: %w", spec.name, err)
		}
		*spec.dst = set
	}
	return cs, nil
}

func parseCronField(field string, lo, hi int) (fieldSet, error) {
	var set fieldSet

	for _, item := range strings.Split(field, ",") {
		rng, stepStr, hasStep := strings.Cut(item, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return set, fmt.Errorf("invalid step %q", stepStr)
			}
			step = n
		}

		start, end := lo, hi
		switch {
		case rng == "*":
		case strings.Contains(rng, "-"):
			a, b, _ := strings.Cut(rng, "-")
			var err error
			if start, err = strconv.Atoi(a); err != nil {
				return set, fmt.Errorf("invalid range start %q", a)
			}
			if end, err = strconv.Atoi(b); err != nil {
				return set, fmt.Errorf("invalid range end %q", b)
			}
		default:
			v, err := strconv.Atoi(rng)
			if err != nil {
				return set, fmt.Errorf("invalid value %q", rng)
			}
			start = v
			end = v
			if hasStep {
				end = hi
			}
		}

		if start < lo || end > hi || start > end {
			return set, fmt.Errorf("%q out of range [%d-%d]", item, lo, hi)
		}
		for v := start; v <= end; v += step {
			set[v] = true
		}
	}
	return set, nil
}

// MustParseCron is like ParseCron but panics on error.
func MustParseCron(expr string) *CronSchedule {
	cs, err := ParseCron(expr)
	if err != nil {
		panic(err)
	}
	return cs
}

func (c *CronSchedule) String() string {
	return c.raw
}

// Next returns the first matching minute strictly after t, or the zero time
// when nothing matches within a year.
func (c *CronSchedule) Next(t time.Time) time.Time {
	next := t.Truncate(time.Minute).Add(time.Minute)

	const horizon = 366 * 24 * 60
	for i := 0; i < horizon; i++ {
		if c.matches(next) {
			return next
		}
		next = next.Add(time.Minute)
	}
	return time.Time{}
}

func (c *CronSchedule) matches(t time.Time) bool {
	return c.minutes[t.Minute()] &&
		c.hours[t.Hour()] &&
		c.days[t.Day()] &&
		c.months[int(t.Month())] &&
		c.weekdays[int(t.Weekday())]
}

// ParseSchedule accepts either a Go duration ("6h") or a cron expression.
func ParseSchedule(spec string) (Schedule, error) {
	spec = strings.TrimSpace(spec)
	if d, err := time.ParseDuration(spec); err == nil {
		if d <= 0 {
			return nil, fmt.Errorf("invalid schedule %q: interval must be positive", spec)
		}
		return NewIntervalSchedule(d), nil
	}
	return ParseCron(spec)
}
