package layout

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/bowerhall/dossier/internal/pairing"
)

func testPairs(n int) []pairing.Pair {
	var pairs []pairing.Pair
	for i := 0; i < n; i++ {
		seq := int64(i * 2)
		pairs = append(pairs, pairing.Pair{
			Front: pairing.Image{Ref: "front", Seq: seq, Side: pairing.SideFront},
			Back:  pairing.Image{Ref: "back", Seq: seq + 1, Side: pairing.SideBack},
		})
	}
	return pairs
}

func TestDefaultTemplateValid(t *testing.T) {
	if err := DefaultTemplate().Validate(); err != nil {
		t.Fatalf("default template invalid: %v", err)
	}
}

func TestPageNormalMode(t *testing.T) {
	tmpl := DefaultTemplate()
	placements := tmpl.Page(testPairs(2), ModeNormal)

	if len(placements) != 4 {
		t.Fatalf("expected 4 placements, got %d", len(placements))
	}

	front, back := placements[0], placements[1]
	if front.X != tmpl.MarginX {
		t.Errorf("front box should sit at the left margin, got x=%g", front.X)
	}
	if back.X != tmpl.MarginX+tmpl.BoxWidth+tmpl.GapX {
		t.Errorf("back box in wrong column: x=%g", back.X)
	}
	if front.Y != tmpl.MarginY || back.Y != tmpl.MarginY {
		t.Errorf("row 0 should sit at the top margin: %g, %g", front.Y, back.Y)
	}
	if front.Mirrored || back.Mirrored {
		t.Errorf("normal mode must not mirror")
	}

	wantY := tmpl.MarginY + tmpl.BoxHeight + tmpl.GapY
	if placements[2].Y != wantY {
		t.Errorf("row 1 y: expected %g, got %g", wantY, placements[2].Y)
	}
}

func TestPageIdempotent(t *testing.T) {
	tmpl := DefaultTemplate()
	pairs := testPairs(3)

	first := tmpl.Page(pairs, ModeMirrorReversed)
	second := tmpl.Page(pairs, ModeMirrorReversed)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different placements")
	}
}

func TestPageReversedSwapsBoxes(t *testing.T) {
	tmpl := DefaultTemplate()
	normal := tmpl.Page(testPairs(1), ModeNormal)
	reversed := tmpl.Page(testPairs(1), ModeReversed)

	if reversed[0].X != normal[1].X || reversed[1].X != normal[0].X {
		t.Errorf("reversed mode should swap box columns: %+v", reversed)
	}
	if reversed[0].Mirrored || reversed[1].Mirrored {
		t.Errorf("reversed mode must not mirror")
	}
}

func TestPageMirrorReversed(t *testing.T) {
	tmpl := DefaultTemplate()
	normal := tmpl.Page(testPairs(2), ModeNormal)
	mirror := tmpl.Page(testPairs(2), ModeMirrorReversed)

	for i := range mirror {
		if !mirror[i].Mirrored {
			t.Errorf("placement %d not mirrored", i)
		}
	}
	// Same pair index, opposite columns.
	if mirror[0].X != normal[1].X || mirror[1].X != normal[0].X {
		t.Errorf("mirror mode should also swap box columns")
	}
	if mirror[0].Y != normal[0].Y {
		t.Errorf("mirroring must not move rows: %g vs %g", mirror[0].Y, normal[0].Y)
	}
}

func TestPageDropsExcessPairs(t *testing.T) {
	placements := DefaultTemplate().Page(testPairs(7), ModeNormal)
	if len(placements) != 2*maxRows {
		t.Errorf("expected %d placements, got %d", 2*maxRows, len(placements))
	}
}

func TestParseMode(t *testing.T) {
	for _, mode := range []Mode{ModeNormal, ModeReversed, ModeMirrorReversed} {
		parsed, err := ParseMode(mode.String())
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", mode.String(), err)
		}
		if parsed != mode {
			t.Errorf("round trip mismatch: %v != %v", parsed, mode)
		}
	}

	if _, err := ParseMode("sideways"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestLoadTemplateOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte("box_height: 120\ngap_y: 20\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tmpl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tmpl.BoxHeight != 120 || tmpl.GapY != 20 {
		t.Errorf("overrides not applied: %+v", tmpl)
	}
	if tmpl.BoxWidth != DefaultTemplate().BoxWidth {
		t.Errorf("unset fields should keep defaults: %+v", tmpl)
	}
}

func TestLoadTemplateRejectsOversized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	if err := os.WriteFile(path, []byte("box_height: 500\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Errorf("expected oversized geometry to be rejected")
	}
}
