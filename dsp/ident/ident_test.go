package ident

import "testing"

func TestNewIsStable(t *testing.T) {
	a := New("Frequency")
	b := New("Frequency")
	if a != b {
		t.Fatalf("New() not stable: %v != %v", a, b)
	}

	if a == New("frequency") {
		t.Fatal("identifiers are case sensitive")
	}

	if got := a.String(); got != "Frequency" {
		t.Fatalf("String() = %q, want %q", got, "Frequency")
	}
}

func TestHashDoesNotIntern(t *testing.T) {
	id := Hash("never-interned-name-7f3c")
	if _, ok := id.Name(); ok {
		t.Fatal("Hash() must not intern the name")
	}

	if got := id.String(); got[:2] != "0x" {
		t.Fatalf("String() = %q, want hex fallback", got)
	}
}

func TestEmptyNameIsInvalid(t *testing.T) {
	if New("") != Invalid {
		t.Fatal("empty name should map to Invalid")
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"m_InFrequency", "Frequency"},
		{"m_OutValue", "Value"},
		{"m_In_Phase", "Phase"},
		{"m_Index", "Index"},
		{"m_Gain", "Gain"},
		{"InRangeMin", "InRangeMin"},
		{"OutRangeMin", "OutRangeMin"},
		{"InLeft", "InLeft"},
		{"OutLeft", "OutLeft"},
		{"Frequency", "Frequency"},
		{"m_In", "In"},
	}

	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Fatalf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if Canonical("InRangeMax") == Canonical("OutRangeMax") {
		t.Fatal("input and output range ports collapse to one name")
	}
}
