package searchspace

import (
	"fmt"
	"sort"

	"github.com/modelsmith/archforge/pkgs/blockcode"
	"github.com/modelsmith/archforge/pkgs/invariant"
)

// EmptySearchSpaceError reports a sweep that produced zero candidates for a
// target type. The default ranges always keep at least one survivor (ratio 1,
// delta 0), so an empty result is a broken rule set, not a valid outcome.
type EmptySearchSpaceError struct {
	TypeName string
	Index    int
}

func (e *EmptySearchSpaceError) Error() string {
	return fmt.Sprintf("search space for type %s at block %d is empty", e.TypeName, e.Index)
}

// Generate enumerates replacement codes for the block at index idx of seq.
// It returns one candidate list per target type: a single list for the conv
// stack family (the kernel-size-1 head keeps its width), one list per family
// member for OSA blocks, and the block's own code for structural leaves that
// are never mutated. Candidate order is deterministic: descending generating
// out-channel ratio, then bottleneck ratio, then sub-layer count.
func Generate(seq []blockcode.Block, idx int, rules *Rules) ([][]string, error) {
	invariant.NotNil(rules, "rules")
	invariant.InRange(idx, 0, len(seq)-1, "idx")

	switch b := seq[idx].(type) {
	case *blockcode.SuperConvKXBNRELU:
		list, err := convCandidates(b, idx, rules)
		if err != nil {
			return nil, err
		}
		return [][]string{list}, nil
	case *blockcode.SuperVoVKXLX:
		return vovCandidates(b, idx, rules)
	default:
		// Markers, plain convs and containers carry structure, not searchable
		// width: the only candidate is the block itself.
		return [][]string{{seq[idx].String()}}, nil
	}
}

// convCandidates sweeps the output width of a conv stack. A kernel-size-1
// block is a projection or classifier head whose width is pinned by its
// neighbors, so it is never resized.
func convCandidates(b *blockcode.SuperConvKXBNRELU, idx int, rules *Rules) ([]string, error) {
	widths := []int{b.OutChannels()}
	if b.KernelSize() != 1 {
		widths = candidateWidths(b.OutChannels(), rules.ChannelRatios, rules.MinChannels, rules.ChannelBase)
	}

	seen := make(map[string]struct{}, len(widths))
	list := make([]string, 0, len(widths))
	for _, w := range widths {
		code := fmt.Sprintf("%s(%d,%d,%d,1)", b.TypeName(), b.InChannels(), w, b.Stride())
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		list = append(list, code)
	}
	if len(list) == 0 {
		return nil, &EmptySearchSpaceError{TypeName: b.TypeName(), Index: idx}
	}
	return list, nil
}

// vovCandidates forms, for every type in every family, the Cartesian product
// of swept output widths, sub-layer counts and bottleneck widths, discarding
// candidates below the family's minimum width or without a single stage.
func vovCandidates(b *blockcode.SuperVoVKXLX, idx int, rules *Rules) ([][]string, error) {
	outWidths := candidateWidths(b.OutChannels(), rules.ChannelRatios, rules.MinChannels, rules.ChannelBase)
	bottlenecks := candidateWidths(b.BottleneckChannels(), rules.ChannelRatios, rules.MinChannels, rules.ChannelBase)
	subLayers := candidateSubLayers(b.SubLayers(), rules.SubLayerDeltas)

	var result [][]string
	for _, fam := range rules.Families {
		base := rules.familyBase(fam)
		minWidth := rules.familyMinChannels(fam)

		for _, typeName := range fam.Types {
			seen := make(map[string]struct{})
			var list []string
			for _, w := range outWidths {
				for _, btl := range bottlenecks {
					for _, sl := range subLayers {
						// Re-snap to the family's own base before filtering.
						outW := blockcode.RoundToBase(float64(w), base)
						btlW := blockcode.RoundToBase(float64(btl), base)
						if outW < minWidth || btlW < minWidth {
							continue
						}
						if sl <= 0 {
							continue
						}
						code := fmt.Sprintf("%s(%d,%d,%d,%d,%d)",
							typeName, b.InChannels(), outW, b.Stride(), btlW, sl)
						if _, ok := seen[code]; ok {
							continue
						}
						seen[code] = struct{}{}
						list = append(list, code)
					}
				}
			}
			if len(list) == 0 {
				return nil, &EmptySearchSpaceError{TypeName: typeName, Index: idx}
			}
			result = append(result, list)
		}
	}

	invariant.Postcondition(len(result) > 0, "candidate sweep must produce at least one list")
	return result, nil
}

// candidateWidths applies every ratio to width, floors the result at
// minWidth, snaps it to base, and drops duplicates produced by rounding.
// Order follows the ratio order.
func candidateWidths(width int, ratios []float64, minWidth, base int) []int {
	seen := make(map[int]struct{}, len(ratios))
	out := make([]int, 0, len(ratios))
	for _, r := range ratios {
		w := float64(width) * r
		if w < float64(minWidth) {
			w = float64(minWidth)
		}
		rounded := blockcode.RoundToBase(w, base)
		if _, ok := seen[rounded]; ok {
			continue
		}
		seen[rounded] = struct{}{}
		out = append(out, rounded)
	}
	return out
}

// candidateSubLayers applies every delta to the current count, clamps at
// zero, deduplicates and sorts descending. Zero-stage values survive here and
// are filtered during candidate formation, mirroring the clamp-then-discard
// rule.
func candidateSubLayers(subLayers int, deltas []int) []int {
	seen := make(map[int]struct{}, len(deltas))
	out := make([]int, 0, len(deltas))
	for _, d := range deltas {
		v := subLayers + d
		if v < 0 {
			v = 0
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
