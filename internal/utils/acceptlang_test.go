package utils

import "testing"

func TestDetermineLocale(t *testing.T) {
	sup := []string{"en", "de"}
	cases := []struct {
		name, query, accept, want string
	}{
		{"query wins", "de-CH", "en-US,en;q=0.9", "de"},
		{"header order", "", "en-US,en;q=0.9,de;q=0.8", "en"},
		{"higher q", "", "de;q=0.9,en;q=0.8", "de"},
		{"q zero ignored", "", "de;q=0,en;q=0.1", "en"},
		{"malformed q skipped", "", "de;q=abc,en;q=0.5", "en"},
		{"unsupported falls back", "fr", "fr-FR,es;q=0.9", "en"},
		{"empty header", "", "", "en"},
	}
	for _, c := range cases {
		if got := DetermineLocale(c.query, c.accept, sup, "en"); got != c.want {
			t.Fatalf("%s: got %s, want %s", c.name, got, c.want)
		}
	}
}

func TestDetermineLocale_UnsupportedDefault(t *testing.T) {
	if got := DetermineLocale("", "", []string{"de", "en"}, "fr"); got != "de" {
		t.Fatalf("want first supported, got %s", got)
	}
}
