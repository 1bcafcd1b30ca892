package clean

import (
	"testing"
	"time"
)

// TestCurrency covers symbol/separator stripping, absent input, and the
// loud-failure rule for non-numeric remainders.
func TestCurrency(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in      string
		want    float64
		absent  bool
		wantErr bool
	}{
		{in: "$1,234.50", want: 1234.50},
		{in: "$85.00", want: 85},
		{in: "1000", want: 1000},
		{in: "$10,000,000.00", want: 10000000},
		{in: "", absent: true},
		{in: "   ", absent: true},
		{in: "free", wantErr: true},
		{in: "$", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Currency(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("Currency(%q): expected error, got %v", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Currency(%q): %v", tc.in, err)
			continue
		}
		if tc.absent {
			if got != nil {
				t.Errorf("Currency(%q) = %v, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("Currency(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

// TestDate verifies the time-of-day component is discarded and absent input
// yields a nil date.
func TestDate(t *testing.T) {
	t.Parallel()

	got, err := Date("2023-03-29 00:00:00")
	if err != nil {
		t.Fatalf("Date: %v", err)
	}
	want := time.Date(2023, time.March, 29, 0, 0, 0, 0, time.UTC)
	if got == nil || !got.Equal(want) {
		t.Fatalf("Date = %v, want %v", got, want)
	}

	got, err = Date("2023-03-29")
	if err != nil {
		t.Fatalf("Date (date-only): %v", err)
	}
	if got == nil || !got.Equal(want) {
		t.Fatalf("Date (date-only) = %v, want %v", got, want)
	}

	got, err = Date("")
	if err != nil || got != nil {
		t.Fatalf("Date(\"\") = (%v, %v), want (nil, nil)", got, err)
	}

	if _, err := Date("29th of March"); err == nil {
		t.Fatal("Date: expected error for unparseable input")
	}
}

func TestBoolean(t *testing.T) {
	t.Parallel()

	if b, err := Boolean("t"); err != nil || !b {
		t.Fatalf("Boolean(t) = (%v, %v), want (true, nil)", b, err)
	}
	if b, err := Boolean("f"); err != nil || b {
		t.Fatalf("Boolean(f) = (%v, %v), want (false, nil)", b, err)
	}
	for _, bad := range []string{"", "true", "yes", "T"} {
		if _, err := Boolean(bad); err == nil {
			t.Errorf("Boolean(%q): expected error", bad)
		}
	}
}

func TestNullInt(t *testing.T) {
	t.Parallel()

	n, err := NullInt("365")
	if err != nil || n == nil || *n != 365 {
		t.Fatalf("NullInt(365) = (%v, %v)", n, err)
	}
	n, err = NullInt("")
	if err != nil || n != nil {
		t.Fatalf("NullInt(\"\") = (%v, %v), want (nil, nil)", n, err)
	}
	if _, err := NullInt("many"); err == nil {
		t.Fatal("NullInt: expected error for non-numeric input")
	}
}

func TestNullString(t *testing.T) {
	t.Parallel()

	if got := NullString(""); got != nil {
		t.Fatalf("NullString(\"\") = %v, want nil", *got)
	}
	if got := NullString("Private room"); got == nil || *got != "Private room" {
		t.Fatalf("NullString = %v", got)
	}
}
