package pairing

import "sort"

// MaxPairs is the most pairs a single rendered page can hold.
const MaxPairs = 5

// Side classifies an image as the front or back of a card.
type Side int

const (
	SideFront Side = iota
	SideBack
)

func (s Side) String() string {
	if s == SideBack {
		return "back"
	}
	return "front"
}

// Image is one labeled card photo: its storage ref and the transport's
// per-conversation sequence number, which fixes submission order.
type Image struct {
	Ref  string
	Seq  int64
	Side Side
}

// Pair is one front/back combination destined for one page row.
type Pair struct {
	Front Image
	Back  Image
}

// Result is the outcome of pairing a session's groups.
type Result struct {
	Pairs      []Pair
	Incomplete int
}

// Build turns ordered groups of labeled images into front/back pairs.
// Within each group, entries are ordered by sequence number, fronts and
// backs keep their relative order, and the i-th front is paired with the
// i-th back. Pairing is positional: labels decide the side, arrival order
// decides the partner. A group with unequal side counts still contributes
// its matched prefix but bumps Incomplete. Accumulation stops once maxPairs
// pairs are collected; later groups are not scanned. The input is never
// mutated.
func Build(groups [][]Image, maxPairs int) Result {
	var res Result
	for _, group := range groups {
		if len(res.Pairs) >= maxPairs {
			break
		}
		if len(group) == 0 {
			continue
		}

		ordered := make([]Image, len(group))
		copy(ordered, group)
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].Seq < ordered[j].Seq
		})

		var fronts, backs []Image
		for _, img := range ordered {
			if img.Side == SideBack {
				backs = append(backs, img)
			} else {
				fronts = append(fronts, img)
			}
		}

		if len(fronts) != len(backs) {
			res.Incomplete++
		}

		n := len(fronts)
		if len(backs) < n {
			n = len(backs)
		}
		for i := 0; i < n && len(res.Pairs) < maxPairs; i++ {
			res.Pairs = append(res.Pairs, Pair{Front: fronts[i], Back: backs[i]})
		}
	}
	return res
}
