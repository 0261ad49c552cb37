/*
timewindow.go - Pure timezone-aware temporal utilities

PURPOSE:
  Every timing classification in the award rules reduces to one of four
  questions answered here:
    - What does this UTC instant look like in a named timezone?
    - Did it happen strictly before a clock time on its local day?
    - Does it fall inside a window [start, start+duration], both ends
      inclusive?
    - What are the UTC bounds of its local calendar day?

  All functions are pure: no wall-clock reads, no side effects. Timezones
  are IANA names resolved through the Go tzdata, so DST transitions are
  handled correctly — a "day" in America/New_York is 23 hours long on the
  spring-forward date and these bounds reflect that.

TIMEZONE FALLBACK:
  An empty or unknown timezone name resolves to UTC. Callers pass whatever
  the project/user record holds; a missing timezone must degrade to a sane
  default rather than fail an award run.

SEE ALSO:
  - award/standup.go: 11:00 local clock-time rule
  - award/milestone.go: end-of-day due date anchoring
  - award/task.go: local day bounds for the standup prerequisite
*/
package engine

import (
	"time"
)

// DefaultTimezone is used when an event snapshot carries no timezone.
const DefaultTimezone = "UTC"

// LoadZone resolves an IANA timezone name, falling back to UTC for empty or
// unknown names.
func LoadZone(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// InZone reinterprets an absolute instant in the given named timezone.
// The instant itself is unchanged; only its wall-clock reading moves.
func InZone(t time.Time, timezone string) time.Time {
	return t.In(LoadZone(timezone))
}

// BeforeClockTime reports whether the zoned local time-of-day of t is
// strictly earlier than the given "HH:MM:SS" clock time on the same local
// calendar date. A zero instant or a malformed clock string is never
// "before" anything.
func BeforeClockTime(t time.Time, timezone, clock string) bool {
	if t.IsZero() {
		return false
	}
	c, err := time.Parse("15:04:05", clock)
	if err != nil {
		return false
	}
	local := InZone(t, timezone)
	target := time.Date(local.Year(), local.Month(), local.Day(),
		c.Hour(), c.Minute(), c.Second(), 0, local.Location())
	return local.Before(target)
}

// WithinWindow reports whether t falls inside [start, start+duration],
// inclusive at both ends.
func WithinWindow(t, start time.Time, duration time.Duration) bool {
	if t.Before(start) {
		return false
	}
	return !t.After(start.Add(duration))
}

// DayBounds returns the UTC instants bounding the local calendar day that
// contains t in the given timezone. The end bound is the last representable
// instant of the day (one nanosecond before the next local midnight), so
// [start, end] range queries are inclusive. Built from local midnights
// rather than a fixed 24h offset, so DST-shortened and -lengthened days
// come out right.
func DayBounds(t time.Time, timezone string) (startUTC, endUTC time.Time) {
	local := InZone(t, timezone)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start.UTC(), end.UTC()
}

// EndOfLocalDay anchors a date-valued time at the last instant of that
// calendar day in the given timezone. The argument's own year/month/day
// fields are taken as the local date; its clock fields and location are
// ignored. Used to turn a due DATE into a due INSTANT: submissions up to
// 23:59:59 local on the due date are on time.
func EndOfLocalDay(date time.Time, timezone string) time.Time {
	loc := LoadZone(timezone)
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	return start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// LocalDate formats the local calendar date of t in the given timezone as
// YYYY-MM-DD. Used in dedup keys and denial descriptions.
func LocalDate(t time.Time, timezone string) string {
	return InZone(t, timezone).Format("2006-01-02")
}
