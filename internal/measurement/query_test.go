package measurement

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

// fakeReader serves a fixed slice, filtered like a real store.
type fakeReader struct {
	rows  []Measurement
	err   error
	calls int
}

func (f *fakeReader) Range(_ context.Context, from, to time.Time) ([]Measurement, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := []Measurement{}
	for _, m := range f.rows {
		if !m.Timestamp.Before(from) && !m.Timestamp.After(to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		wantErr  bool
		wantFrom time.Time
	}{
		{"naive ISO", "2024-01-01T00:00:00", "2024-01-01T01:00:00", false, at(0, 0)},
		{"with offset", "2024-01-01T01:00:00+01:00", "2024-01-01T01:00:00", false, at(0, 0)},
		{"equal bounds", "2024-01-01T00:00:00", "2024-01-01T00:00:00", false, at(0, 0)},
		{"missing from", "", "2024-01-01T01:00:00", true, time.Time{}},
		{"missing to", "2024-01-01T00:00:00", "", true, time.Time{}},
		{"unparsable", "yesterday", "2024-01-01T01:00:00", true, time.Time{}},
		{"from after to", "2024-01-02T00:00:00", "2024-01-01T00:00:00", true, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWindow(tt.from, tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidArgument) {
					t.Errorf("ParseWindow() error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWindow() error = %v", err)
			}
			if !w.From.Equal(tt.wantFrom) {
				t.Errorf("From = %v, want %v", w.From, tt.wantFrom)
			}
		})
	}
}

func TestEngine_Query(t *testing.T) {
	reader := &fakeReader{rows: []Measurement{
		{Timestamp: at(0, 0), Temperature: 36.5, PH: 7.0},
		{Timestamp: at(1, 0), Temperature: 36.8, PH: 7.1},
	}}
	engine := NewEngine(reader)
	ctx := context.Background()

	got, err := engine.Query(ctx, Window{From: at(0, 0), To: at(1, 0)})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Query() returned %d rows, want 2", len(got))
	}

	if _, err := engine.Query(ctx, Window{From: at(5, 0), To: at(6, 0)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Query(empty window) error = %v, want ErrNotFound", err)
	}
}

func TestEngine_QueryPropagatesStorageError(t *testing.T) {
	storeErr := storageErr("querying measurements", errors.New("connection refused"))
	engine := NewEngine(&fakeReader{err: storeErr})

	_, err := engine.Query(context.Background(), Window{From: at(0, 0), To: at(1, 0)})
	if !errors.Is(err, ErrStorage) {
		t.Errorf("Query() error = %v, want ErrStorage", err)
	}
}

func TestEngine_Series(t *testing.T) {
	reader := &fakeReader{rows: []Measurement{
		{Timestamp: at(0, 0), Temperature: 36.5, PH: 7.0},
		{Timestamp: at(1, 0), Temperature: 36.8, PH: 7.1},
	}}
	engine := NewEngine(reader)
	ctx := context.Background()
	w := Window{From: at(0, 0), To: at(1, 0)}

	tests := []struct {
		typ  Type
		want []float64
	}{
		{TypeTemperature, []float64{36.5, 36.8}},
		{TypePH, []float64{7.0, 7.1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			s, err := engine.Series(ctx, tt.typ, w)
			if err != nil {
				t.Fatalf("Series() error = %v", err)
			}
			if !reflect.DeepEqual(s.Values, tt.want) {
				t.Errorf("Values = %v, want %v", s.Values, tt.want)
			}
		})
	}

	// Same request against unchanged data extracts the same series.
	a, _ := engine.Series(ctx, TypeTemperature, w)
	b, _ := engine.Series(ctx, TypeTemperature, w)
	if !reflect.DeepEqual(a, b) {
		t.Error("repeated Series() calls differ")
	}
}

func TestEngine_SeriesUnknownTypeSkipsStore(t *testing.T) {
	reader := &fakeReader{}
	engine := NewEngine(reader)

	_, err := engine.Series(context.Background(), Type("kelvin"), Window{From: at(0, 0), To: at(1, 0)})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Series() error = %v, want ErrInvalidArgument", err)
	}
	if reader.calls != 0 {
		t.Errorf("store queried %d times for an invalid type", reader.calls)
	}
}
