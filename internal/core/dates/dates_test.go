package dates

import (
	"testing"
	"time"
)

func TestNormalize(t *testing.T) {
	now := time.Date(2025, time.March, 12, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"2025-02-28", "2025-02-28"},
		{"2025/02/01", "2025-02-01"},
		{"02/14/2025", "2025-02-14"},
		{"2025-01-05T10:00:00", "2025-01-05"},
		{"today", "2025-03-12"},
		{"yesterday", "2025-03-11"},
		{"tomorrow", "2025-03-13"},
		{"  2025-03-01  ", "2025-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Normalize(tt.in, now)
			if err != nil {
				t.Fatalf("Normalize(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	now := time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "   ", "qwerty"} {
		if got, err := Normalize(in, now); err == nil {
			t.Errorf("Normalize(%q) = %q, want error", in, got)
		}
	}
}

func TestToday(t *testing.T) {
	now := time.Date(2025, time.July, 4, 23, 59, 0, 0, time.UTC)
	if got := Today(now); got != "2025-07-04" {
		t.Errorf("Today() = %q", got)
	}
}
