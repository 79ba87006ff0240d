package batch

import "testing"

func TestTaskID_Deterministic(t *testing.T) {
	id1 := TaskID("B1", "s/B1/a.tiff", "TIFF_CONVERSION")
	id2 := TaskID("B1", "s/B1/a.tiff", "TIFF_CONVERSION")

	if id1 != id2 {
		t.Fatalf("expected deterministic id, got %q and %q", id1, id2)
	}
	if id1 == "" {
		t.Fatal("expected non-empty id")
	}
}

func TestTaskID_DistinctInputsDistinctIDs(t *testing.T) {
	cases := []struct {
		batchID, inputKey string
		phase             PhaseTag
	}{
		{"B1", "s/B1/a.tiff", "TIFF_CONVERSION"},
		{"B2", "s/B1/a.tiff", "TIFF_CONVERSION"},
		{"B1", "s/B1/b.tiff", "TIFF_CONVERSION"},
		{"B1", "s/B1/a.tiff", "THUMBNAIL_GENERATION"},
	}

	seen := map[string]bool{}
	for _, c := range cases {
		id := TaskID(c.batchID, c.inputKey, c.phase)
		if seen[id] {
			t.Fatalf("unexpected id collision for %+v", c)
		}
		seen[id] = true
	}
}

func TestTaskID_LengthIsStable(t *testing.T) {
	id := TaskID("B1", "k", "PHASE")
	if len(id) != 32 {
		t.Fatalf("expected 32 hex chars (16 bytes), got %d: %q", len(id), id)
	}
}
