package calendar

import (
	"errors"
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2025, 3, 10, hour, min, 0, 0, time.UTC)
}

func win(from, to Slot) Window {
	return Window{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), From: from, To: to}
}

// ════════════════════════════════════════════════════════════
// ToWindow
// ════════════════════════════════════════════════════════════

func TestToWindow_Aligned(t *testing.T) {
	w, err := ToWindow(at(9, 0), at(10, 30))
	if err != nil {
		t.Fatalf("ToWindow: %v", err)
	}
	if w.From != 18 || w.To != 21 {
		t.Errorf("expected slots 18-21, got %d-%d", w.From, w.To)
	}
	if !w.Date.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %s", w.Date)
	}
}

func TestToWindow_RoundTripsEveryAlignedPair(t *testing.T) {
	for from := 0; from < SlotsPerDay; from++ {
		for to := from + 1; to < SlotsPerDay; to++ {
			start := at(from/2, (from%2)*30)
			end := at(to/2, (to%2)*30)

			w, err := ToWindow(start, end)
			if err != nil {
				t.Fatalf("ToWindow(%s, %s): %v", start, end, err)
			}
			if !(w.From < w.To) || !w.From.Valid() || !w.To.Valid() {
				t.Fatalf("invalid window %v", w)
			}
			if !w.Start().Equal(start) || !w.End().Equal(end) {
				t.Fatalf("round trip mismatch: %s-%s vs %s-%s", w.Start(), w.End(), start, end)
			}
			if got := w.From.Clock(); got != start.Format("15:04") {
				t.Fatalf("clock %s != %s", got, start.Format("15:04"))
			}
		}
	}
}

func TestToWindow_Misaligned(t *testing.T) {
	cases := []struct {
		name     string
		from, to time.Time
	}{
		{"from minute 15", at(9, 15), at(10, 0)},
		{"to minute 45", at(9, 0), at(10, 45)},
		{"seconds set", at(9, 0).Add(time.Second), at(10, 0)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ToWindow(c.from, c.to); !errors.Is(err, ErrMisalignedTime) {
				t.Errorf("expected ErrMisalignedTime, got %v", err)
			}
		})
	}
}

func TestToWindow_InvalidRange(t *testing.T) {
	if _, err := ToWindow(at(10, 0), at(10, 0)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("equal bounds: expected ErrInvalidRange, got %v", err)
	}
	if _, err := ToWindow(at(11, 0), at(10, 0)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed bounds: expected ErrInvalidRange, got %v", err)
	}
}

func TestToWindow_OutOfRange(t *testing.T) {
	// ends at midnight of the following day → to slot 48
	from := at(23, 0)
	to := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	if _, err := ToWindow(from, to); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

func TestToWindow_NormalisesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5:30", 5*3600+1800)
	from := time.Date(2025, 3, 10, 14, 30, 0, 0, loc) // 09:00 UTC
	to := time.Date(2025, 3, 10, 16, 0, 0, 0, loc)    // 10:30 UTC

	w, err := ToWindow(from, to)
	if err != nil {
		t.Fatalf("ToWindow: %v", err)
	}
	if w.From != 18 || w.To != 21 {
		t.Errorf("expected 18-21, got %d-%d", w.From, w.To)
	}
	if w.Date.Location() != time.UTC {
		t.Errorf("date must be UTC, got %s", w.Date.Location())
	}
}

// ════════════════════════════════════════════════════════════
// Overlaps
// ════════════════════════════════════════════════════════════

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"identical", win(18, 21), win(18, 21), true},
		{"partial left", win(16, 19), win(18, 21), true},
		{"partial right", win(20, 22), win(18, 21), true},
		{"a contains b", win(10, 30), win(18, 21), true},
		{"b contains a", win(18, 21), win(10, 30), true},
		{"adjacent before", win(16, 18), win(18, 21), false},
		{"adjacent after", win(21, 23), win(18, 21), false},
		{"disjoint", win(0, 2), win(40, 44), false},
		{"different date", win(18, 21), Window{Date: win(0, 1).Date.AddDate(0, 0, 1), From: 18, To: 21}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(a,b)=%v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(b,a)=%v, want %v (not symmetric)", got, tt.want)
			}
		})
	}
}

func TestOverlaps_SymmetricExhaustive(t *testing.T) {
	for af := Slot(0); af < 8; af++ {
		for aTo := af + 1; aTo <= 8; aTo++ {
			for bf := Slot(0); bf < 8; bf++ {
				for bt := bf + 1; bt <= 8; bt++ {
					a, b := win(af, aTo), win(bf, bt)
					// brute force: any shared slot
					want := false
					for s := af; s < aTo; s++ {
						if s >= bf && s < bt {
							want = true
						}
					}
					if Overlaps(a, b) != want || Overlaps(b, a) != want {
						t.Fatalf("Overlaps(%v,%v) mismatch, want %v", a, b, want)
					}
				}
			}
		}
	}
}
