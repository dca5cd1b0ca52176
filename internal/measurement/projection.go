package measurement

import (
	"slices"
	"strings"
	"time"
)

// Type selects which scalar of a Measurement a series plots.
type Type string

// Measurement types. The string value is the URL path segment.
const (
	TypeTemperature Type = "temperature"
	TypePH          Type = "ph"
)

// projection describes how one Type is extracted and labelled.
type projection struct {
	extract func(Measurement) float64
	yLabel  string
	title   string
}

// projections is the single source of truth for series dispatch. Every Type
// constant has exactly one entry; adding a sensor dimension means adding one here.
var projections = map[Type]projection{
	TypeTemperature: {
		extract: func(m Measurement) float64 { return m.Temperature },
		yLabel:  "Temperature [°C]",
		title:   "Temperature",
	},
	TypePH: {
		extract: func(m Measurement) float64 { return m.PH },
		yLabel:  "pH",
		title:   "PH",
	},
}

// Series is a projected (time, value) sequence with its display labels.
type Series struct {
	Type       Type        `json:"type"`
	YLabel     string      `json:"label"`
	Title      string      `json:"title"`
	Timestamps []time.Time `json:"timestamps"`
	Values     []float64   `json:"values"`
}

// Len returns the number of points in the series.
func (s Series) Len() int {
	return len(s.Timestamps)
}

// ParseType resolves a case-insensitive type name.
//
// Returns:
//   - Type: The matching type
//   - error: ErrInvalidArgument for unknown names
func ParseType(raw string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := projections[t]; !ok {
		return "", invalidf("invalid measurement type %q", raw)
	}
	return t, nil
}

// Types returns every supported type in name order.
func Types() []Type {
	types := make([]Type, 0, len(projections))
	for t := range projections {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Project extracts the t scalar from each measurement, preserving input order.
// It is pure: the same inputs always yield an equal Series.
func Project(t Type, ms []Measurement) (Series, error) {
	p, ok := projections[t]
	if !ok {
		return Series{}, invalidf("invalid measurement type %q", t)
	}

	s := Series{
		Type:       t,
		YLabel:     p.yLabel,
		Title:      p.title,
		Timestamps: make([]time.Time, len(ms)),
		Values:     make([]float64, len(ms)),
	}
	for i, m := range ms {
		s.Timestamps[i] = m.Timestamp
		s.Values[i] = p.extract(m)
	}
	return s, nil
}
