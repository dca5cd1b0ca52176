package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/bioreactor-core/internal/measurement"
)

// failingStore is a measurement repository whose every call fails.
type failingStore struct {
	err error
}

func (f failingStore) Insert(context.Context, measurement.Measurement) error { return f.err }

func (f failingStore) InsertBatch(context.Context, []measurement.Measurement) error { return f.err }

func (f failingStore) Range(context.Context, time.Time, time.Time) ([]measurement.Measurement, error) {
	return nil, f.err
}

func postMeasurement(t *testing.T, h http.Handler, ts string, temperature, ph float64) {
	t.Helper()

	body := fmt.Sprintf(`{"timestamp": %q, "temperature": %v, "ph": %v}`, ts, temperature, ph)
	if w := do(t, h, http.MethodPost, "/measurement", body); w.Code != http.StatusNoContent {
		t.Fatalf("POST /measurement status = %d; body: %s", w.Code, w.Body.String())
	}
}

func seriesPath(typ, from, to string) string {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	return "/measurement/" + typ + "?" + q.Encode()
}

func chartPath(typ, from, to string) string {
	p := seriesPath(typ, from, to)
	i := strings.Index(p, "?")
	return p[:i] + "/png" + p[i:]
}

func getSeries(t *testing.T, h http.Handler, typ, from, to string) measurement.Series {
	t.Helper()

	w := do(t, h, http.MethodGet, seriesPath(typ, from, to), "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET series status = %d; body: %s", w.Code, w.Body.String())
	}
	var s measurement.Series
	if err := json.Unmarshal(w.Body.Bytes(), &s); err != nil {
		t.Fatalf("unmarshal series: %v", err)
	}
	return s
}

func TestInsertMeasurement_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"missing timestamp", `{"temperature": 36.5, "ph": 7.0}`, "timestamp, temperature, and ph are required fields"},
		{"missing temperature", `{"timestamp": "2024-01-01T00:00:00", "ph": 7.0}`, "timestamp, temperature, and ph are required fields"},
		{"missing ph", `{"timestamp": "2024-01-01T00:00:00", "temperature": 36.5}`, "timestamp, temperature, and ph are required fields"},
		{"bad timestamp", `{"timestamp": "yesterday", "temperature": 36.5, "ph": 7.0}`, "invalid timestamp format"},
		{"malformed", `not json`, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := testServer(t)

			w := do(t, h, http.MethodPost, "/measurement", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, http.StatusBadRequest, w.Body.String())
			}
			if got := errorMessage(t, w); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestInsertMeasurement_Duplicate(t *testing.T) {
	_, h := testServer(t)

	postMeasurement(t, h, "2024-01-01T00:00:00Z", 36.5, 7.0)

	w := do(t, h, http.MethodPost, "/measurement",
		`{"timestamp": "2024-01-01T00:00:00Z", "temperature": 40, "ph": 6}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want %d", w.Code, http.StatusConflict)
	}
	errorMessage(t, w)

	s := getSeries(t, h, "temperature", "2024-01-01T00:00:00", "2024-01-01T00:00:00")
	if len(s.Values) != 1 || s.Values[0] != 36.5 {
		t.Errorf("values after duplicate = %v, want [36.5]", s.Values)
	}
}

func TestInsertMeasurement_StorageFailure(t *testing.T) {
	storeErr := fmt.Errorf("%w: inserting measurement: disk full", measurement.ErrStorage)
	_, h := testServer(t, func(d *Deps) { d.Measurements = failingStore{err: storeErr} })

	w := do(t, h, http.MethodPost, "/measurement",
		`{"timestamp": "2024-01-01T00:00:00Z", "temperature": 36.5, "ph": 7.0}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := errorMessage(t, w); !strings.Contains(got, "disk full") {
		t.Errorf("error = %q, want storage message passed through", got)
	}
}

// TestScenario_TwoReadings covers the two-reading walkthrough: both series
// come back in order and the chart renders.
func TestScenario_TwoReadings(t *testing.T) {
	_, h := testServer(t)

	postMeasurement(t, h, "2024-01-01T00:00:00", 36.5, 7.0)
	postMeasurement(t, h, "2024-01-01T01:00:00", 36.8, 7.1)

	from, to := "2024-01-01T00:00:00", "2024-01-01T01:00:00"

	temp := getSeries(t, h, "temperature", from, to)
	if want := []float64{36.5, 36.8}; !equalFloats(temp.Values, want) {
		t.Errorf("temperature values = %v, want %v", temp.Values, want)
	}
	if temp.YLabel != "Temperature [°C]" || temp.Title != "Temperature" {
		t.Errorf("temperature labels = %q/%q", temp.YLabel, temp.Title)
	}

	ph := getSeries(t, h, "ph", from, to)
	if want := []float64{7.0, 7.1}; !equalFloats(ph.Values, want) {
		t.Errorf("ph values = %v, want %v", ph.Values, want)
	}
	if ph.YLabel != "pH" || ph.Title != "PH" {
		t.Errorf("ph labels = %q/%q", ph.YLabel, ph.Title)
	}

	wantTimes := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
	}
	for i, ts := range ph.Timestamps {
		if !ts.Equal(wantTimes[i]) {
			t.Errorf("timestamp[%d] = %v, want %v", i, ts, wantTimes[i])
		}
	}

	for _, typ := range []string{"temperature", "ph"} {
		w := do(t, h, http.MethodGet, chartPath(typ, from, to), "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s chart status = %d; body: %s", typ, w.Code, w.Body.String())
		}
		if ct := w.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s chart Content-Type = %q, want image/png", typ, ct)
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
			t.Errorf("%s chart body is not a PNG", typ)
		}
	}
}

func TestRange_SinglePointWindow(t *testing.T) {
	_, h := testServer(t)

	postMeasurement(t, h, "2024-03-10T12:30:00Z", 37.2, 7.3)
	postMeasurement(t, h, "2024-03-10T12:31:00Z", 37.3, 7.4)

	s := getSeries(t, h, "temperature", "2024-03-10T12:30:00Z", "2024-03-10T12:30:00Z")
	if !equalFloats(s.Values, []float64{37.2}) {
		t.Errorf("values = %v, want [37.2]", s.Values)
	}

	w := do(t, h, http.MethodGet, chartPath("ph", "2024-03-10T12:30:00Z", "2024-03-10T12:30:00Z"), "")
	if w.Code != http.StatusOK {
		t.Errorf("single point chart status = %d; body: %s", w.Code, w.Body.String())
	}
}

func TestQuery_Errors(t *testing.T) {
	_, h := testServer(t)
	postMeasurement(t, h, "2024-01-01T00:00:00Z", 36.5, 7.0)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
	}{
		{"unknown type", chartPath("kelvin", "2024-01-01T00:00:00", "2024-01-01T01:00:00"), http.StatusBadRequest, `invalid measurement type "kelvin"`},
		{"unknown type json", seriesPath("kelvin", "2024-01-01T00:00:00", "2024-01-01T01:00:00"), http.StatusBadRequest, `invalid measurement type "kelvin"`},
		{"missing from", chartPath("temperature", "", "2024-01-01T01:00:00"), http.StatusBadRequest, "from and to query parameters are required"},
		{"missing to", chartPath("ph", "2024-01-01T00:00:00", ""), http.StatusBadRequest, "from and to query parameters are required"},
		{"bad from", chartPath("ph", "01/01/2024", "2024-01-01T01:00:00"), http.StatusBadRequest, "invalid date format"},
		{"from after to", chartPath("ph", "2024-01-02T00:00:00", "2024-01-01T00:00:00"), http.StatusBadRequest, "from must not be after to"},
		{"empty window", chartPath("temperature", "2023-01-01T00:00:00", "2023-01-01T01:00:00"), http.StatusNotFound, "no measurements found for the given time range"},
		{"empty window json", seriesPath("ph", "2023-01-01T00:00:00", "2023-01-01T01:00:00"), http.StatusNotFound, "no measurements found for the given time range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodGet, tt.path, "")
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if got := errorMessage(t, w); got != tt.wantError {
				t.Errorf("error = %q, want %q", got, tt.wantError)
			}
		})
	}
}

func TestQuery_TypeIsCaseInsensitive(t *testing.T) {
	_, h := testServer(t)
	postMeasurement(t, h, "2024-01-01T00:00:00Z", 36.5, 7.0)

	s := getSeries(t, h, "PH", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z")
	if s.Type != measurement.TypePH {
		t.Errorf("type = %q, want %q", s.Type, measurement.TypePH)
	}
}

func TestQuery_StorageFailure(t *testing.T) {
	storeErr := fmt.Errorf("%w: querying measurements: database is locked", measurement.ErrStorage)
	_, h := testServer(t, func(d *Deps) { d.Measurements = failingStore{err: storeErr} })

	w := do(t, h, http.MethodGet, chartPath("ph", "2024-01-01T00:00:00", "2024-01-01T01:00:00"), "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	errorMessage(t, w)
}

func TestQuery_Deterministic(t *testing.T) {
	_, h := testServer(t)
	postMeasurement(t, h, "2024-01-01T00:00:00Z", 36.5, 7.0)
	postMeasurement(t, h, "2024-01-01T00:10:00Z", 36.7, 7.05)

	path := seriesPath("temperature", "2024-01-01T00:00:00Z", "2024-01-01T00:10:00Z")
	first := do(t, h, http.MethodGet, path, "").Body.String()
	second := do(t, h, http.MethodGet, path, "").Body.String()
	if first != second {
		t.Errorf("identical requests returned different series:\n%s\n%s", first, second)
	}
}

func TestInsertBatch(t *testing.T) {
	_, h := testServer(t)

	body := `{"measurements": [
		{"timestamp": "2024-01-01T00:02:00Z", "temperature": 36.9, "ph": 7.2},
		{"timestamp": "2024-01-01T00:00:00Z", "temperature": 36.5, "ph": 7.0},
		{"timestamp": "2024-01-01T00:01:00Z", "temperature": 36.7, "ph": 7.1}
	]}`
	if w := do(t, h, http.MethodPost, "/measurement/batch", body); w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	s := getSeries(t, h, "temperature", "2024-01-01T00:00:00Z", "2024-01-01T00:02:00Z")
	if want := []float64{36.5, 36.7, 36.9}; !equalFloats(s.Values, want) {
		t.Errorf("values = %v, want %v (ascending by timestamp)", s.Values, want)
	}
}

func TestInsertBatch_AllOrNothing(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"empty", `{"measurements": []}`, http.StatusBadRequest},
		{"invalid item", `{"measurements": [
			{"timestamp": "2024-01-01T00:00:00Z", "temperature": 36.5, "ph": 7.0},
			{"timestamp": "2024-01-01T00:01:00Z", "temperature": 36.7}
		]}`, http.StatusBadRequest},
		{"duplicate inside batch", `{"measurements": [
			{"timestamp": "2024-01-01T00:00:00Z", "temperature": 36.5, "ph": 7.0},
			{"timestamp": "2024-01-01T00:00:00Z", "temperature": 36.7, "ph": 7.1}
		]}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := testServer(t)

			w := do(t, h, http.MethodPost, "/measurement/batch", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.wantStatus, w.Body.String())
			}
			errorMessage(t, w)

			w = do(t, h, http.MethodGet, seriesPath("ph", "2024-01-01T00:00:00Z", "2024-01-01T00:01:00Z"), "")
			if w.Code != http.StatusNotFound {
				t.Errorf("store not empty after rejected batch: status %d", w.Code)
			}
		})
	}
}

func TestInsertBatch_ItemIndexInError(t *testing.T) {
	_, h := testServer(t)

	body := `{"measurements": [
		{"timestamp": "2024-01-01T00:00:00Z", "temperature": 36.5, "ph": 7.0},
		{"timestamp": "bad", "temperature": 36.7, "ph": 7.1}
	]}`
	w := do(t, h, http.MethodPost, "/measurement/batch", body)
	if got := errorMessage(t, w); got != "measurements[1]: invalid timestamp format" {
		t.Errorf("error = %q", got)
	}
}

func TestInsertMockData(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, batch := range []bool{false, true} {
		t.Run(fmt.Sprintf("batch=%v", batch), func(t *testing.T) {
			_, h := testServer(t, func(d *Deps) {
				d.Now = func() time.Time { return now }
				d.Rand = rand.New(rand.NewPCG(1, 2))
			})

			path := "/measurement/insert_mock_data"
			if batch {
				path += "?batch=true"
			}
			if w := do(t, h, http.MethodPost, path, ""); w.Code != http.StatusNoContent {
				t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
			}

			from := now.Add(-measurement.MockSpan).Format(time.RFC3339)
			to := now.Format(time.RFC3339)
			temp := getSeries(t, h, "temperature", from, to)
			if temp.Len() != measurement.MockReadings {
				t.Fatalf("stored %d readings, want %d", temp.Len(), measurement.MockReadings)
			}
			for i := 1; i < temp.Len(); i++ {
				if got := temp.Timestamps[i].Sub(temp.Timestamps[i-1]); got != measurement.MockInterval {
					t.Fatalf("gap %d = %v, want %v", i, got, measurement.MockInterval)
				}
			}

			if w := do(t, h, http.MethodGet, chartPath("temperature", from, to), ""); w.Code != http.StatusOK {
				t.Errorf("chart status = %d; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestInsertMockData_RepeatConflicts(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	_, h := testServer(t, func(d *Deps) { d.Now = func() time.Time { return now } })

	if w := do(t, h, http.MethodPost, "/measurement/insert_mock_data", ""); w.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", w.Code)
	}
	w := do(t, h, http.MethodPost, "/measurement/insert_mock_data", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("repeat status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	errorMessage(t, w)
}

func TestInsertMockData_BadBatchFlag(t *testing.T) {
	_, h := testServer(t)

	w := do(t, h, http.MethodPost, "/measurement/insert_mock_data?batch=maybe", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestInsertMockData_StorageFailure(t *testing.T) {
	_, h := testServer(t, func(d *Deps) {
		d.Measurements = failingStore{err: errors.Join(measurement.ErrStorage, errors.New("read-only database"))}
	})

	w := do(t, h, http.MethodPost, "/measurement/insert_mock_data", "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func equalFloats(got, want []float64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
