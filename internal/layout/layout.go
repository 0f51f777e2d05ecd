// Package layout maps ordered front/back pairs onto fixed page
// coordinates. It is pure geometry: no I/O, no image decoding, and the
// same input always produces the same placements.
package layout

import (
	"fmt"

	"github.com/bowerhall/dossier/internal/pairing"
)

// Page dimensions in PDF units, A4 portrait at 72 units per inch.
const (
	PageWidth  = 595.28
	PageHeight = 841.89
)

// maxRows is the number of row slots on the page, one pair per row.
const maxRows = 5

// Mode selects how each pair maps onto its row's two boxes.
type Mode int

const (
	// ModeNormal places fronts in the left box, backs in the right.
	ModeNormal Mode = iota
	// ModeReversed swaps the box assignment.
	ModeReversed
	// ModeMirrorReversed swaps the box assignment and horizontally
	// mirrors each image inside its box.
	ModeMirrorReversed
)

func (m Mode) String() string {
	switch m {
	case ModeReversed:
		return "reversed"
	case ModeMirrorReversed:
		return "mirror"
	default:
		return "normal"
	}
}

// ParseMode maps a mode token (as carried in button callback data) back to
// its Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "normal":
		return ModeNormal, nil
	case "reversed":
		return ModeReversed, nil
	case "mirror":
		return ModeMirrorReversed, nil
	}
	return ModeNormal, fmt.Errorf("unknown orientation mode %q", s)
}

// Placement tells the composer where one image goes: box origin (top-left),
// box size, and whether to reflect the image around the box's vertical
// centerline.
type Placement struct {
	Ref      string
	X        float64
	Y        float64
	W        float64
	H        float64
	Mirrored bool
}

// Page lays out up to five pairs as rows of two boxes each. Pairs beyond
// the fifth are dropped silently. Each pair emits its front placement
// followed by its back placement.
func (t Template) Page(pairs []pairing.Pair, mode Mode) []Placement {
	n := len(pairs)
	if n > maxRows {
		n = maxRows
	}

	leftX := t.MarginX
	rightX := t.MarginX + t.BoxWidth + t.GapX
	pitch := t.BoxHeight + t.GapY
	mirrored := mode == ModeMirrorReversed

	placements := make([]Placement, 0, 2*n)
	for i := 0; i < n; i++ {
		y := t.MarginY + float64(i)*pitch

		frontX, backX := leftX, rightX
		if mode != ModeNormal {
			frontX, backX = rightX, leftX
		}

		placements = append(placements,
			Placement{Ref: pairs[i].Front.Ref, X: frontX, Y: y, W: t.BoxWidth, H: t.BoxHeight, Mirrored: mirrored},
			Placement{Ref: pairs[i].Back.Ref, X: backX, Y: y, W: t.BoxWidth, H: t.BoxHeight, Mirrored: mirrored},
		)
	}
	return placements
}
