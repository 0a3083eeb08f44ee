package booking

import (
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Window is a reservation's time range as the user entered it: calendar
// dates and wall-clock times with no zone attached.
type Window struct {
	StartDate string
	StartTime string
	EndDate   string
	EndTime   string
}

// Span is a Window pinned to absolute time. End is exclusive.
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Valid() bool {
	return s.Start.Before(s.End)
}

// Overlaps is the half-open interval test: spans that only touch do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

// Zone interprets windows in one fixed location.
type Zone struct {
	loc *time.Location
}

func NewZone(loc *time.Location) Zone {
	if loc == nil {
		loc = time.UTC
	}
	return Zone{loc: loc}
}

func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Instant parses one date and time. Seconds are accepted and kept.
func (z Zone) Instant(date, clock string) (time.Time, error) {
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		t, err := time.ParseInLocation(DateLayout+" "+layout, date+" "+clock, z.Location())
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrMalformedWindow
}

// Resolve pins w to absolute time. It does not check ordering; see Span.Valid.
func (z Zone) Resolve(w Window) (Span, error) {
	start, err := z.Instant(w.StartDate, w.StartTime)
	if err != nil {
		return Span{}, err
	}
	end, err := z.Instant(w.EndDate, w.EndTime)
	if err != nil {
		return Span{}, err
	}
	return Span{Start: start, End: end}, nil
}

// Format renders t as a calendar date and wall-clock time in the zone.
func (z Zone) Format(t time.Time) (date, clock string) {
	t = t.In(z.Location())
	return t.Format(DateLayout), t.Format(TimeLayout)
}
