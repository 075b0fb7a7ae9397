package timestamp

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{value: "2024-02-21", want: time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC)},
		{value: "2024-02-21T01:02:03", want: time.Date(2024, 2, 21, 1, 2, 3, 0, time.UTC)},
		{value: "2024-02-21T01:02:03Z", want: time.Date(2024, 2, 21, 1, 2, 3, 0, time.UTC)},
		{value: "2024-02-21T01:02:03-07:00", want: time.Date(2024, 2, 21, 8, 2, 3, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := Parse(tt.value)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Time().Equal(tt.want) {
				t.Fatalf("Parse(%q) = %s, want %s", tt.value, got.Time(), tt.want)
			}
		})
	}
}

func TestParseRejectsUnknownLayout(t *testing.T) {
	if _, err := Parse("21/02/2024"); err == nil {
		t.Fatalf("expected an error for an unrecognized layout")
	}
}

func TestParseOr(t *testing.T) {
	fallback := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	got, err := ParseOr("", fallback)
	if err != nil || !got.Equal(fallback) {
		t.Fatalf("expected the fallback for an empty value, got %s, %v", got, err)
	}
}

func TestUnmarshalJSON(t *testing.T) {
	var body struct {
		At   Timestamp  `json:"at"`
		Skip *Timestamp `json:"skip"`
	}
	if err := json.Unmarshal([]byte(`{"at":"2024-02-21","skip":null}`), &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !body.At.Time().Equal(time.Date(2024, 2, 21, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %s", body.At.Time())
	}
}
