package textnorm

import "testing"

func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "João Félix", want: "joao felix"},
		{in: "  GONÇALO   Ramos ", want: "goncalo ramos"},
		{in: "Müller", want: "muller"},
		{in: "", want: ""},
		{in: "   ", want: ""},
	}
	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	scorers := []string{"Viktor Gyökeres", "Pedro Gonçalves"}
	if !ContainsFold(scorers, "viktor gyokeres") {
		t.Fatalf("expected accent-insensitive match")
	}
	if ContainsFold(scorers, "") {
		t.Fatalf("empty needle must never match")
	}
	if EqualFold("", "") {
		t.Fatalf("empty names must not be equal")
	}
}
