package tradingcal

import (
	"errors"
	"testing"
)

func TestIsTradingDay(t *testing.T) {
	cal := New()

	tests := []struct {
		date string
		want bool
	}{
		{"2025-03-14", true},  // Friday
		{"2025-03-15", false}, // Saturday
		{"2025-03-16", false}, // Sunday
		{"2025-07-04", false}, // Independence Day
		{"2025-12-25", false}, // Christmas
		{"2025-12-26", true},
	}

	for _, tt := range tests {
		got, err := cal.IsTradingDay(tt.date)
		if err != nil {
			t.Fatalf("IsTradingDay(%s): %v", tt.date, err)
		}
		if got != tt.want {
			t.Errorf("IsTradingDay(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestElapsedDays(t *testing.T) {
	cal := New()

	tests := []struct {
		from, to string
		want     float64
	}{
		{"2025-03-14", "2025-03-14", 0},
		{"2025-03-14", "2025-03-17", 3},
		{"2025-03-07", "2025-03-10", 3}, // across the DST switch
		{"2024-12-31", "2025-12-31", 365},
	}

	for _, tt := range tests {
		got, err := cal.ElapsedDays(tt.from, tt.to)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("ElapsedDays(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestElapsedDays_Errors(t *testing.T) {
	cal := New()
	if _, err := cal.ElapsedDays("2025-03-17", "2025-03-14"); !errors.Is(err, ErrNegativeInterval) {
		t.Errorf("expected ErrNegativeInterval, got %v", err)
	}
	if _, err := cal.ElapsedDays("03/14/2025", "2025-03-17"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestTradingDaysBetween(t *testing.T) {
	cal := New()

	// Thu Jul 3 -> Mon Jul 7 2025: Jul 4 holiday, weekend, Monday session
	n, err := cal.TradingDaysBetween("2025-07-03", "2025-07-07")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 trading day, got %d", n)
	}

	n, _ = cal.TradingDaysBetween("2025-03-10", "2025-03-14")
	if n != 4 {
		t.Errorf("expected 4 trading days, got %d", n)
	}
}
