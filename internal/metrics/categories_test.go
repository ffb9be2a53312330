package metrics

import "testing"

var testBoundaries = []CategoryBoundary{
	{Name: "Days", Start: "06:00", End: "10:00"},
	{Name: "Mid Days", Start: "10:00", End: "14:00"},
	{Name: "Evenings", Start: "14:00", End: "22:00"},
	{Name: "Nights", Start: "22:00", End: "06:00"},
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		begin string
		want  string
	}{
		{"06:00", "Days"},
		{"09:59", "Days"},
		// 10:00 falls in exactly one bucket: intervals are half-open.
		{"10:00", "Mid Days"},
		{"13:59", "Mid Days"},
		{"14:00", "Evenings"},
		{"21:59", "Evenings"},
		{"22:00", "Nights"},
		{"23:30", "Nights"},
		{"00:00", "Nights"},
		{"05:59", "Nights"},
	}

	for _, tt := range tests {
		if got := Categorize(tt.begin, testBoundaries); got != tt.want {
			t.Errorf("Categorize(%q) = %q, want %q", tt.begin, got, tt.want)
		}
	}
}

func TestCategorize_NoMatch(t *testing.T) {
	boundaries := []CategoryBoundary{{Name: "Days", Start: "06:00", End: "10:00"}}
	if got := Categorize("12:00", boundaries); got != Uncategorized {
		t.Errorf("Categorize(12:00) = %q, want %q", got, Uncategorized)
	}
}

func TestCategorize_BadInput(t *testing.T) {
	for _, bad := range []string{"", "7am", "25:00", "07:61", "7"} {
		if got := Categorize(bad, testBoundaries); got != Uncategorized {
			t.Errorf("Categorize(%q) = %q, want %q", bad, got, Uncategorized)
		}
	}
}
