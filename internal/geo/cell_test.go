package geo

import "testing"

// TestCell_Deterministic verifies repeated derivations agree and nearby but
// distinct coordinates map into H3 space without error.
func TestCell_Deterministic(t *testing.T) {
	t.Parallel()

	// Buenos Aires city center.
	a, err := Cell(-34.6037, -58.3816, 9)
	if err != nil {
		t.Fatalf("Cell: %v", err)
	}
	b, err := Cell(-34.6037, -58.3816, 9)
	if err != nil {
		t.Fatalf("Cell (repeat): %v", err)
	}
	if a != b {
		t.Fatalf("cell not deterministic: %q vs %q", a, b)
	}
	if a == "" {
		t.Fatal("empty cell id")
	}

	// A different resolution must give a different cell.
	coarse, err := Cell(-34.6037, -58.3816, 5)
	if err != nil {
		t.Fatalf("Cell res 5: %v", err)
	}
	if coarse == a {
		t.Fatalf("res 5 and res 9 produced the same cell %q", a)
	}
}

func TestCell_OutOfRange(t *testing.T) {
	t.Parallel()

	cases := []struct{ lat, lon float64 }{
		{91, 0},
		{-90.0001, 0},
		{0, 180.5},
		{0, -181},
	}
	for _, tc := range cases {
		if _, err := Cell(tc.lat, tc.lon, 9); err == nil {
			t.Errorf("Cell(%v, %v): expected range error", tc.lat, tc.lon)
		}
	}

	if _, err := Cell(0, 0, 16); err == nil {
		t.Error("Cell: expected resolution range error")
	}
}
