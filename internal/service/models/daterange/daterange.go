package daterange

import (
	"errors"
	"net/url"
	"time"
)

// Preset is a named order-history window.
type Preset string

const (
	PresetToday     Preset = "today"
	PresetYesterday Preset = "yesterday"
	PresetWeek      Preset = "week"
	PresetMonth     Preset = "month"
	PresetAll       Preset = "all"
)

var (
	ErrInvalidPreset = errors.New("invalid date range preset")
	ErrInvalidRange  = errors.New("invalid date range")
)

func ParsePreset(s string) (Preset, error) {
	switch Preset(s) {
	case PresetToday, PresetYesterday, PresetWeek, PresetMonth, PresetAll:
		return Preset(s), nil
	default:
		return "", ErrInvalidPreset
	}
}

// DateRange selects which window of orders to load: either a named preset or
// an explicit start/end pair. A preset takes precedence over explicit bounds.
type DateRange struct {
	Preset Preset    `json:"preset,omitempty"`
	Start  time.Time `json:"startDate,omitzero"`
	End    time.Time `json:"endDate,omitzero"`
}

func FromPreset(p Preset) DateRange {
	return DateRange{Preset: p}
}

func Between(start, end time.Time) DateRange {
	return DateRange{Start: start, End: end}
}

// FromQuery parses a selector from request query parameters.
func FromQuery(q url.Values) (DateRange, error) {
	if s := q.Get("preset"); s != "" {
		preset, err := ParsePreset(s)
		if err != nil {
			return DateRange{}, err
		}

		return FromPreset(preset), nil
	}

	var rng DateRange
	if s := q.Get("startDate"); s != "" {
		start, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return DateRange{}, ErrInvalidRange
		}
		rng.Start = start
	}
	if s := q.Get("endDate"); s != "" {
		end, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return DateRange{}, ErrInvalidRange
		}
		rng.End = end
	}

	if start, end, bounded := rng.Window(time.Now()); bounded && !end.IsZero() && end.Before(start) {
		return DateRange{}, ErrInvalidRange
	}

	return rng, nil
}

func (d DateRange) IsZero() bool {
	return d.Preset == "" && d.Start.IsZero() && d.End.IsZero()
}

// Query encodes the selector the way the remote store expects it.
func (d DateRange) Query() url.Values {
	q := url.Values{}
	if d.Preset != "" {
		q.Set("preset", string(d.Preset))

		return q
	}
	if !d.Start.IsZero() {
		q.Set("startDate", d.Start.Format(time.RFC3339))
	}
	if !d.End.IsZero() {
		q.Set("endDate", d.End.Format(time.RFC3339))
	}

	return q
}

// Window resolves the selector to concrete bounds relative to now. The second
// return value is false for an unbounded window (the "all" preset or a
// selector with no bounds at all).
func (d DateRange) Window(now time.Time) (start, end time.Time, bounded bool) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch d.Preset {
	case PresetToday:
		return midnight, midnight.AddDate(0, 0, 1), true
	case PresetYesterday:
		return midnight.AddDate(0, 0, -1), midnight, true
	case PresetWeek:
		return midnight.AddDate(0, 0, -7), midnight.AddDate(0, 0, 1), true
	case PresetMonth:
		return midnight.AddDate(0, 0, -30), midnight.AddDate(0, 0, 1), true
	case PresetAll:
		return time.Time{}, time.Time{}, false
	}

	if d.Start.IsZero() && d.End.IsZero() {
		return time.Time{}, time.Time{}, false
	}

	return d.Start, d.End, true
}
