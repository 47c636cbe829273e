package runmode

import "testing"

func TestMode_Valid(t *testing.T) {
	valid := []Mode{ModeLive, ModeRecord, ModePlayback}
	for _, m := range valid {
		if !m.Valid() {
			t.Fatalf("expected %q to be valid", m)
		}
	}
	if Mode("bogus").Valid() {
		t.Fatal("expected unknown mode to be invalid")
	}
}
