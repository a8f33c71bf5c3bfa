package checksum

import "testing"

func TestSum_KnownDigest(t *testing.T) {
	// sha256("") is a fixed vector.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != want {
		t.Errorf("Sum(nil) = %s, want %s", got, want)
	}
	if Sum([]byte("[]")) == Sum([]byte("[ ]")) {
		t.Error("different documents share a digest")
	}
}

func TestShort(t *testing.T) {
	if got := Short(Sum([]byte("x"))); len(got) != 12 {
		t.Errorf("Short length = %d, want 12", len(got))
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short(abc) = %q", got)
	}
}
