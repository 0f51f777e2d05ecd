package pairing

import "testing"

func TestBuildPairsMatchedPrefix(t *testing.T) {
	group := []Image{
		{Ref: "f1", Seq: 1, Side: SideFront},
		{Ref: "f2", Seq: 2, Side: SideFront},
		{Ref: "b1", Seq: 3, Side: SideBack},
		{Ref: "f3", Seq: 4, Side: SideFront},
		{Ref: "b2", Seq: 5, Side: SideBack},
	}

	res := Build([][]Image{group}, MaxPairs)

	if len(res.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(res.Pairs))
	}
	if res.Pairs[0].Front.Ref != "f1" || res.Pairs[0].Back.Ref != "b1" {
		t.Errorf("first pair mismatch: %+v", res.Pairs[0])
	}
	if res.Pairs[1].Front.Ref != "f2" || res.Pairs[1].Back.Ref != "b2" {
		t.Errorf("second pair mismatch: %+v", res.Pairs[1])
	}
	if res.Incomplete != 1 {
		t.Errorf("expected 1 incomplete group, got %d", res.Incomplete)
	}
}

func TestBuildEmptyInput(t *testing.T) {
	res := Build(nil, MaxPairs)
	if len(res.Pairs) != 0 || res.Incomplete != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}

	res = Build([][]Image{{}, {}}, MaxPairs)
	if len(res.Pairs) != 0 || res.Incomplete != 0 {
		t.Errorf("empty groups should not count as incomplete, got %+v", res)
	}
}

func TestBuildOrdersBySequence(t *testing.T) {
	// Entries appended out of sequence order, as happens when a slow
	// download resolves after a faster later one.
	group := []Image{
		{Ref: "f2", Seq: 4, Side: SideFront},
		{Ref: "b1", Seq: 2, Side: SideBack},
		{Ref: "f1", Seq: 1, Side: SideFront},
		{Ref: "b2", Seq: 5, Side: SideBack},
	}

	res := Build([][]Image{group}, MaxPairs)

	if len(res.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(res.Pairs))
	}
	if res.Pairs[0].Front.Ref != "f1" || res.Pairs[0].Back.Ref != "b1" {
		t.Errorf("first pair should use lowest sequence numbers: %+v", res.Pairs[0])
	}
	if res.Incomplete != 0 {
		t.Errorf("balanced group flagged incomplete")
	}
}

func TestBuildMultipleGroups(t *testing.T) {
	groups := [][]Image{
		{
			{Ref: "a-front", Seq: 1, Side: SideFront},
			{Ref: "a-back", Seq: 2, Side: SideBack},
		},
		{
			{Ref: "b-front", Seq: 3, Side: SideFront},
			{Ref: "b-back", Seq: 4, Side: SideBack},
		},
	}

	res := Build(groups, MaxPairs)

	if len(res.Pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(res.Pairs))
	}
	if res.Pairs[0].Front.Ref != "a-front" || res.Pairs[1].Front.Ref != "b-front" {
		t.Errorf("pairs out of group order: %+v", res.Pairs)
	}
}

func TestBuildStopsAtMaxPairs(t *testing.T) {
	var groups [][]Image
	for i := 0; i < 7; i++ {
		seq := int64(i * 2)
		groups = append(groups, []Image{
			{Ref: "f", Seq: seq, Side: SideFront},
			{Ref: "b", Seq: seq + 1, Side: SideBack},
		})
	}

	res := Build(groups, MaxPairs)

	if len(res.Pairs) != MaxPairs {
		t.Errorf("expected %d pairs, got %d", MaxPairs, len(res.Pairs))
	}
}

func TestBuildOneSidedGroup(t *testing.T) {
	group := []Image{
		{Ref: "f1", Seq: 1, Side: SideFront},
		{Ref: "f2", Seq: 2, Side: SideFront},
	}

	res := Build([][]Image{group}, MaxPairs)

	if len(res.Pairs) != 0 {
		t.Errorf("expected no pairs, got %d", len(res.Pairs))
	}
	if res.Incomplete != 1 {
		t.Errorf("expected 1 incomplete group, got %d", res.Incomplete)
	}
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	group := []Image{
		{Ref: "late", Seq: 9, Side: SideBack},
		{Ref: "early", Seq: 1, Side: SideFront},
	}
	groups := [][]Image{group}

	Build(groups, MaxPairs)

	if group[0].Ref != "late" || group[1].Ref != "early" {
		t.Errorf("input group reordered: %+v", group)
	}
}
