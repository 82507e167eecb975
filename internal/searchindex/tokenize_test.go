package searchindex

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{"Compressor LEAK", []string{"compressor", "leak"}},
		{"R-410a recharge, 2021!", []string{"r", "410a", "recharge", "2021"}},
		{"   ", nil},
		{"", nil},
	}
	for _, c := range cases {
		got := Tokenize(c.raw)
		if len(got) == 0 && len(c.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Fatalf("Tokenize(%q) = %v, want %v", c.raw, got, c.want)
		}
	}
}

func TestPrefixQuery(t *testing.T) {
	if got := PrefixQuery([]string{"comp", "leak"}); got != "comp:* & leak:*" {
		t.Fatalf("got %q", got)
	}
	if got := PrefixQuery([]string{"furnace"}); got != "furnace:*" {
		t.Fatalf("got %q", got)
	}
	if got := PrefixQuery(nil); got != "" {
		t.Fatalf("empty tokens should give empty query, got %q", got)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Carrier   58TN ", "", "Replaced\tigniter\n2023")
	want := "carrier 58tn replaced igniter 2023"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
