package points

import "testing"

func TestParseRules_Defaults(t *testing.T) {
	t.Parallel()

	rules, err := ParseRules([]byte("{}"))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if got := rules.Table.RankForPoints(500); got != RankCoOwner {
		t.Fatalf("default table missing: got %q", got)
	}
	if _, err := rules.Catalog.PenaltyFor("spam"); err != nil {
		t.Fatalf("default catalog missing: %v", err)
	}
}

func TestParseRules_Overrides(t *testing.T) {
	t.Parallel()

	raw := []byte(`
ranks:
  - name: Captain
    min_points: 100
  - name: Deckhand
    min_points: 0
violations:
  - key: mutiny
    label: Mutiny
    penalty: 50
`)
	rules, err := ParseRules(raw)
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if got := rules.Table.RankForPoints(120); got != Rank("Captain") {
		t.Fatalf("RankForPoints(120)=%q want=Captain", got)
	}
	if got := rules.Table.RankForPoints(99); got != Rank("Deckhand") {
		t.Fatalf("RankForPoints(99)=%q want=Deckhand", got)
	}
	pen, err := rules.Catalog.PenaltyFor("mutiny")
	if err != nil || pen != 50 {
		t.Fatalf("PenaltyFor(mutiny)=%d,%v want=50,nil", pen, err)
	}
	if _, err := rules.Catalog.PenaltyFor("spam"); !IsUnknownViolation(err) {
		t.Fatalf("override must replace the default catalog")
	}
}

func TestParseRules_BadInput(t *testing.T) {
	t.Parallel()

	cases := []string{
		":\nnot yaml",
		"ranks:\n  - name: A\n    min_points: 10",
		"violations:\n  - key: spam\n    penalty: 0",
	}
	for _, raw := range cases {
		if _, err := ParseRules([]byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
