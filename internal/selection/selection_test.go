package selection

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/starford/vitrine/internal/apperr"
)

func TestZeroValueIsAll(t *testing.T) {
	var s Selection
	if !s.IsAll() {
		t.Fatal("zero value should be All")
	}
	if !s.Matches("anything") {
		t.Error("All should match every category")
	}
}

func TestSpecificCollapsesToAll(t *testing.T) {
	if !Specific().IsAll() {
		t.Error("empty Specific should collapse to All")
	}
	if !Specific("", "ALL").IsAll() {
		t.Error("sentinel-only Specific should collapse to All")
	}
}

func TestCaseInsensitiveMembership(t *testing.T) {
	s := Specific("writing")
	if !s.Matches("Writing") {
		t.Error("Writing should match Specific({writing})")
	}
	if s.Matches("coding") {
		t.Error("coding should not match")
	}
}

func TestMembershipDoesNotTrimCategory(t *testing.T) {
	s := Specific(" Writing ")
	if !s.Contains("writing") {
		t.Error("input keys should be trimmed")
	}
	if s.Matches(" Writing ") {
		t.Error("a padded record category must not match Specific({writing})")
	}
}

func TestToggleFromAll(t *testing.T) {
	got := All().Toggle("Coding")
	if got.IsAll() {
		t.Fatal("toggle from All should yield Specific")
	}
	if keys := got.Keys(); len(keys) != 1 || keys[0] != "coding" {
		t.Errorf("keys = %v, want [coding]", keys)
	}
}

func TestToggleAddRemove(t *testing.T) {
	s := All().Toggle("a").Toggle("b")
	if keys := s.Keys(); len(keys) != 2 {
		t.Fatalf("keys = %v, want 2", keys)
	}
	s = s.Toggle("a")
	if keys := s.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Errorf("keys = %v, want [b]", keys)
	}
}

func TestToggleSoleMemberCollapses(t *testing.T) {
	if !Specific("x").Toggle("x").IsAll() {
		t.Error("removing the sole member should yield All")
	}
}

func TestToggleAllDominates(t *testing.T) {
	for _, s := range []Selection{All(), Specific("a"), Specific("a", "b", "c")} {
		if !s.Toggle(AllSentinel).IsAll() {
			t.Errorf("toggle(all) from %s should yield All", s)
		}
	}
}

func TestToggleDoesNotMutateReceiver(t *testing.T) {
	s := Specific("a")
	_ = s.Toggle("b")
	if keys := s.Keys(); len(keys) != 1 {
		t.Errorf("receiver mutated: %v", keys)
	}
}

func TestToggleSequenceExclusivity(t *testing.T) {
	keys := []string{AllSentinel, "a", "b", "c", "A"}
	rng := rand.New(rand.NewSource(7))
	s := All()
	for i := 0; i < 500; i++ {
		s = s.Toggle(keys[rng.Intn(len(keys))])
		if s.IsAll() && len(s.keys) != 0 {
			t.Fatal("selection is both All and Specific")
		}
		if !s.IsAll() && s.Contains(AllSentinel) {
			t.Fatal("Specific set contains the ALL sentinel")
		}
	}
}

func TestMachineDraftDoesNotAffectCommitted(t *testing.T) {
	m := NewMachine()
	if _, err := m.Toggle(Compact, "writing"); err != nil {
		t.Fatal(err)
	}
	if !m.Committed().IsAll() {
		t.Error("committed changed before Commit")
	}
	if _, err := m.Commit(Compact); err != nil {
		t.Fatal(err)
	}
	if !m.Committed().Contains("writing") {
		t.Error("committed should contain writing after Commit")
	}
}

func TestMachineCommitNotifies(t *testing.T) {
	m := NewMachine()
	var seen []Selection
	m.OnCommit(func(s Selection) { seen = append(seen, s) })
	_, _ = m.Toggle(Expanded, "a")
	_, _ = m.Commit(Expanded)
	if len(seen) != 1 || !seen[0].Contains("a") {
		t.Fatalf("commit notifications = %v", seen)
	}
}

func TestMachineResetDraftKeepsCommitted(t *testing.T) {
	m := NewMachine()
	_, _ = m.Toggle(Compact, "a")
	_, _ = m.Commit(Compact)
	if err := m.ResetDraft(Compact); err != nil {
		t.Fatal(err)
	}
	d, _ := m.Draft(Compact)
	if !d.IsAll() {
		t.Error("draft should be All after reset")
	}
	if !m.Committed().Contains("a") {
		t.Error("committed should be untouched by ResetDraft")
	}
}

func TestMachineSurfacesConverge(t *testing.T) {
	m := NewMachine()
	_, _ = m.Toggle(Compact, "a")
	_, _ = m.Toggle(Expanded, "b")
	_, _ = m.Commit(Compact)
	_, _ = m.Commit(Expanded)
	if got := m.Committed(); !got.Equal(Specific("b")) {
		t.Errorf("committed = %s, want b (last commit wins)", got)
	}

	// Opening the compact surface must discard its stale draft.
	d, _ := m.SyncDraftFromCommitted(Compact)
	if !d.Equal(Specific("b")) {
		t.Errorf("synced draft = %s, want b", d)
	}
}

func TestMachineUnknownSurface(t *testing.T) {
	m := NewMachine()
	if _, err := m.Toggle("sidebar", "a"); !errors.Is(err, apperr.ErrUnknownSurface) {
		t.Errorf("Toggle err = %v", err)
	}
	if _, err := m.Commit("sidebar"); !errors.Is(err, apperr.ErrUnknownSurface) {
		t.Errorf("Commit err = %v", err)
	}
	if err := m.ResetDraft("sidebar"); !errors.Is(err, apperr.ErrUnknownSurface) {
		t.Errorf("ResetDraft err = %v", err)
	}
}
