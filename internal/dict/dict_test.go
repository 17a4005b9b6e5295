package dict

import (
	"os"
	"path/filepath"
	"testing"
)

func testDictionary() *Dictionary {
	d := New(2, 7)
	d.Add("hello", 1000)
	d.Add("world", 900)
	d.Add("help", 800)
	d.Add("held", 50)
	d.Add("word", 700)
	d.Add("work", 600)
	return d
}

func TestContains(t *testing.T) {
	d := testDictionary()
	if !d.Contains("hello") {
		t.Fatalf("expected hello to be present")
	}
	if !d.Contains("Hello") {
		t.Fatalf("lookup must be case-insensitive")
	}
	if d.Contains("helo") {
		t.Fatalf("misspelling must not be present verbatim")
	}
}

func TestLookup_ExactHitReturnsItself(t *testing.T) {
	d := testDictionary()
	got := d.Lookup("hello")
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].Term != "hello" || got[0].Distance != 0 {
		t.Fatalf("unexpected candidate %#v", got[0])
	}
}

func TestLookup_ClosestDistanceTierOnly(t *testing.T) {
	d := testDictionary()
	// "helo" is distance 1 from "hello", "help" and "held"; any distance-2
	// matches must be excluded once a distance-1 tier exists.
	got := d.Lookup("helo")
	if len(got) == 0 {
		t.Fatalf("expected candidates for helo")
	}
	for _, c := range got {
		if c.Distance != 1 {
			t.Fatalf("expected only distance-1 candidates, got %#v", c)
		}
	}
	// Ranked by corpus frequency.
	if got[0].Term != "hello" {
		t.Fatalf("expected hello (highest count) first, got %q", got[0].Term)
	}
}

func TestLookup_Transposition(t *testing.T) {
	d := testDictionary()
	got := d.Lookup("wrold")
	if len(got) == 0 {
		t.Fatalf("expected candidates for wrold")
	}
	if got[0].Term != "world" || got[0].Distance != 1 {
		t.Fatalf("adjacent transposition should be distance 1, got %#v", got[0])
	}
}

func TestLookup_NoMatchBeyondMaxEdit(t *testing.T) {
	d := testDictionary()
	if got := d.Lookup("xylophone"); len(got) != 0 {
		t.Fatalf("expected no candidates, got %#v", got)
	}
}

func TestEditDistance(t *testing.T) {
	cases := []struct {
		a, b string
		max  int
		want int
	}{
		{"hello", "hello", 2, 0},
		{"helo", "hello", 2, 1},
		{"wrold", "world", 2, 1},
		{"cat", "dog", 2, -1},
		{"kitten", "sitting", 3, 3},
		{"", "ab", 2, 2},
		{"abcd", "a", 2, -1},
	}
	for _, tc := range cases {
		if got := editDistance(tc.a, tc.b, tc.max); got != tc.want {
			t.Fatalf("editDistance(%q, %q, %d) = %d, want %d", tc.a, tc.b, tc.max, got, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "freq.txt")
	content := "the 23135851162\nof 13151942776\nand 12997637966\nbadline\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	d, err := Load(path, 2, 7)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if d.Len() != 3 {
		t.Fatalf("expected 3 terms, got %d", d.Len())
	}
	if !d.Contains("and") {
		t.Fatalf("expected and to be loaded")
	}
}

func TestLoad_EmptyFileFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := Load(path, 2, 7); err == nil {
		t.Fatalf("expected error for empty dictionary")
	}
}
