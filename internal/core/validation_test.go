package core

import "testing"

func TestIsValidAmount(t *testing.T) {
	cases := map[string]bool{
		"0":          true,
		"12":         true,
		"12.3":       true,
		"12.34":      true,
		"1000000":    true,
		"12.345":     false,
		"12.":        false,
		".5":         false,
		"":           false,
		"-1":         false,
		"+1":         false,
		"1,000":      false,
		"1 000":      false,
		"1e5":        false,
		" 12":        false,
		"12€":        false,
		"١٢":         false, // non-ASCII digits
		"0x10":       false,
		"12.34\n":    false,
		"<script>":   false,
		"1000000.00": true,
	}
	for in, want := range cases {
		if got := IsValidAmount(in); got != want {
			t.Errorf("IsValidAmount(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestIsValidCategoryLabel(t *testing.T) {
	cases := map[string]bool{
		"Loyer":             true,
		"Téléphone":         true,
		"Épargne retraite":  true,
		"week end":          true,
		"Activité sportive": true,
		"Saint-Étienne":     true,
		"l'école":           true,
		"Œuvre":             true,
		"":                  false,
		"Livret 2":          false,
		"a_b":               false,
		"<b>":               false,
		"x;drop":            false,
		"5 × 3":             false,
		"Autre!":            false,
	}
	for in, want := range cases {
		if got := IsValidCategoryLabel(in); got != want {
			t.Errorf("IsValidCategoryLabel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSanitizeForDisplay(t *testing.T) {
	cases := []struct{ in, out string }{
		{"Loyer", "Loyer"},
		{"<script>alert(1)</script>", "scriptalert(1)/script"},
		{"a & b \"c\"", "a & b \"c\""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeForDisplay(tc.in); got != tc.out {
			t.Errorf("SanitizeForDisplay(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestTruncateInput(t *testing.T) {
	cases := []struct {
		in  string
		max int
		out string
	}{
		{"1234567", 7, "1234567"},
		{"12345678", 7, "1234567"},
		{"éééééééé", 7, "ééééééé"},
		{"", 7, ""},
		{"abc", 0, ""},
	}
	for _, tc := range cases {
		if got := TruncateInput(tc.in, tc.max); got != tc.out {
			t.Errorf("TruncateInput(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.out)
		}
	}
}
