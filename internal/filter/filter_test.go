package filter

import (
	"testing"

	"github.com/starford/vitrine/internal/models"
	"github.com/starford/vitrine/internal/selection"
)

func sample() []models.Record {
	return []models.Record{
		{ID: "3", Title: "Haiku Generator", Description: "short poems", CategoryKey: "Writing"},
		{ID: "2", Title: "SQL Tutor", Description: "explains joins", CategoryKey: "coding"},
		{ID: "1", Title: "Cover Letter", Description: "job applications", CategoryKey: "writing"},
		{ID: "0", Title: "Untitled"},
	}
}

func ids(rs []models.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIdentity(t *testing.T) {
	rs := sample()
	got := Apply(rs, "", selection.All())
	if !equal(ids(got), ids(rs)) {
		t.Errorf("Apply(R, \"\", All) = %v, want %v", ids(got), ids(rs))
	}
}

func TestCategoryCaseInsensitive(t *testing.T) {
	got := Apply(sample(), "", selection.Specific("writing"))
	if want := []string{"3", "1"}; !equal(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestCategoryNotTrimmed(t *testing.T) {
	records := []models.Record{{ID: "9", Title: "Padded", CategoryKey: " Writing "}}
	if got := Apply(records, "", selection.Specific("writing")); len(got) != 0 {
		t.Errorf("padded category matched: %v", ids(got))
	}
}

func TestSearchFields(t *testing.T) {
	cases := []struct {
		term string
		want []string
	}{
		{"HAIKU", []string{"3"}},        // title
		{"joins", []string{"2"}},        // description
		{"coding", []string{"2"}},       // category
		{"writ", []string{"3", "1"}},    // category substring
		{"nothing-matches", []string{}}, // empty result
	}
	for _, c := range cases {
		got := Apply(sample(), c.term, selection.All())
		if !equal(ids(got), c.want) {
			t.Errorf("term %q: got %v, want %v", c.term, ids(got), c.want)
		}
	}
}

func TestSearchAndCategoryBothRequired(t *testing.T) {
	got := Apply(sample(), "letter", selection.Specific("coding"))
	if len(got) != 0 {
		t.Errorf("got %v, want none", ids(got))
	}
	got = Apply(sample(), "letter", selection.Specific("coding", "writing"))
	if want := []string{"1"}; !equal(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestOrderPreserved(t *testing.T) {
	rs := sample()
	got := Apply(rs, "", selection.Specific("writing", "coding"))
	if want := []string{"3", "2", "1"}; !equal(ids(got), want) {
		t.Errorf("got %v, want %v", ids(got), want)
	}
}

func TestEmptyCategoryOnlyMatchesAll(t *testing.T) {
	got := Apply(sample(), "untitled", selection.Specific("writing"))
	if len(got) != 0 {
		t.Errorf("record without category matched a Specific selection")
	}
}
