package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jcal/internal/calendar"
	"jcal/internal/model"
)

func sampleConfig() calendar.Config {
	return calendar.Config{
		StartMonth:     model.YearMonth{Year: 2023, Month: time.November},
		EndMonth:       model.YearMonth{Year: 2024, Month: time.February},
		SelectedDate:   model.Date{Year: 2024, Month: time.January, Day: 15},
		FirstDayOfWeek: time.Wednesday,
		Mode:           model.ModeWeek,
	}
}

func TestRoundTrip(t *testing.T) {
	s, err := calendar.New(sampleConfig())
	if err != nil {
		t.Fatalf("calendar.New: %v", err)
	}
	s.SelectDay(model.Day{Date: model.Date{Year: 2024, Month: time.February, Day: 2}})

	got, err := Decode(Encode(s))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != s.Config() {
		t.Fatalf("got %+v, want %+v", got, s.Config())
	}
}

func TestEncodeLayout(t *testing.T) {
	fields := EncodeConfig(sampleConfig())
	want := []any{Version, "2023-11", "2024-02", "2024-01-15", 3, 1}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields, want %d", len(fields), len(want))
	}
	for i := range want {
		if fields[i] != want[i] {
			t.Errorf("field %d: got %v, want %v", i, fields[i], want[i])
		}
	}
}

func TestDecodeLegacyAndJSONNumbers(t *testing.T) {
	got, err := Decode([]any{"2023-11", "2024-02", "2024-01-15", float64(3), float64(1)})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != sampleConfig() {
		t.Fatalf("got %+v, want %+v", got, sampleConfig())
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name      string
		fields    []any
		wantIndex int
	}{
		{"empty", nil, -1},
		{"too long", []any{1, "2024-01", "2024-01", "2024-01-01", 1, 0, "x"}, -1},
		{"future version", []any{2, "2024-01", "2024-01", "2024-01-01", 1, 0}, 0},
		{"month not string", []any{1, 202401, "2024-01", "2024-01-01", 1, 0}, 1},
		{"bad month text", []any{1, "2024-13", "2024-01", "2024-01-01", 1, 0}, 1},
		{"bad date", []any{1, "2024-01", "2024-01", "2024-01-32", 1, 0}, 3},
		{"weekday not int", []any{1, "2024-01", "2024-01", "2024-01-01", "monday", 0}, 4},
		{"weekday range", []any{1, "2024-01", "2024-01", "2024-01-01", 7, 0}, 4},
		{"mode fractional", []any{1, "2024-01", "2024-01", "2024-01-01", 1, 0.5}, 5},
		{"mode range", []any{1, "2024-01", "2024-01", "2024-01-01", 1, 2}, 5},
	}

	for _, tt := range tests {
		_, err := Decode(tt.fields)
		var derr *DecodeError
		if !errors.As(err, &derr) {
			t.Errorf("%s: expected DecodeError, got %v", tt.name, err)
			continue
		}
		if derr.Index != tt.wantIndex {
			t.Errorf("%s: got index %d, want %d", tt.name, derr.Index, tt.wantIndex)
		}
	}
}

func TestRestoreRejectsInvalidRange(t *testing.T) {
	_, err := Restore([]any{1, "2024-02", "2024-01", "2024-01-10", 1, 0})
	var cerr *calendar.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "session.yaml")

	if _, err := Load(path); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}

	if err := Save(path, EncodeConfig(sampleConfig())); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("got permissions %o, want 600", perm)
	}

	fields, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got, err := Decode(fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != sampleConfig() {
		t.Fatalf("got %+v, want %+v", got, sampleConfig())
	}
}

func TestLoadUnquotedDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	body := "- 1\n- \"2024-01\"\n- \"2024-01\"\n- 2024-01-20\n- 0\n- 0\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fields, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg, err := Decode(fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.SelectedDate != (model.Date{Year: 2024, Month: time.January, Day: 20}) {
		t.Fatalf("got selected %v", cfg.SelectedDate)
	}
}
