package course

import "testing"

func TestPartValid(t *testing.T) {
	for _, p := range []Part{PartTheory, PartPractice, PartVideo, PartTest} {
		if !p.Valid() {
			t.Errorf("%q should be valid", p)
		}
	}
	if Part("quiz").Valid() {
		t.Error("unknown part should be invalid")
	}
}

func TestPartTitle(t *testing.T) {
	cases := map[Part]string{
		PartTheory:   "Theory",
		PartPractice: "Practice",
		PartVideo:    "Video",
		PartTest:     "Test",
	}
	for p, want := range cases {
		if got := p.Title(); got != want {
			t.Errorf("%q.Title() = %q, want %q", p, got, want)
		}
	}
}
