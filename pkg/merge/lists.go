package merge

import (
	"github.com/psbr27/compare-yamls/pkg/tree"
)

// mergeSequences applies the list strategy resolved for the sequence's path.
func (m *merger) mergeSequences(src, tgt *tree.Node, path string, depth int) (*tree.Node, error) {
	strategy, policy := m.cfg.resolve(path)
	switch strategy {
	case ListAppend:
		m.collector.ListMerged(path, src.Interface(), tgt.Interface())
		out := tree.NewSequence()
		for _, item := range tgt.Items {
			out.Items = append(out.Items, item.Clone())
		}
		for _, item := range src.Items {
			out.Items = append(out.Items, item.Clone())
		}
		return out, nil

	case ListIntelligent:
		// summary first, nested records of matched elements follow
		m.collector.ListMerged(path, src.Interface(), tgt.Interface())
		return m.mergeSequencesIntelligent(src, tgt, path, policy, depth)

	default: // ListReplace
		if !src.Equal(tgt) {
			m.collector.Changed(path, src.Interface(), tgt.Interface())
		} else if m.cfg.RecordKept {
			m.collector.Kept(path, tgt.Interface())
		}
		return src.Clone(), nil
	}
}

// mergeSequencesIntelligent treats mapping elements as identifiable records:
// a source element matches the first unmatched target element sharing at
// least one scalar key/value pair, and the pair merges recursively. Scalar
// elements are deduplicated by equality and unioned. Output order is source
// elements first, then unmatched target elements; unmatched target elements
// are dropped under the remove policy.
func (m *merger) mergeSequencesIntelligent(src, tgt *tree.Node, path string, policy DeletionPolicy, depth int) (*tree.Node, error) {
	used := make([]bool, len(tgt.Items))
	out := tree.NewSequence()

	for _, s := range src.Items {
		if s.Kind == tree.MappingKind {
			idx := findMatch(s, tgt.Items, used)
			if idx < 0 {
				out.Items = append(out.Items, s.Clone())
				continue
			}
			used[idx] = true
			merged, err := m.merge(s, tgt.Items[idx], tree.IndexPath(path, len(out.Items)), depth+1)
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, merged)
			continue
		}

		// non-mapping element: union with dedup
		if !containsEqual(out.Items, s) {
			out.Items = append(out.Items, s.Clone())
		}
		for i, t := range tgt.Items {
			if !used[i] && t.Equal(s) {
				used[i] = true
			}
		}
	}

	for i, t := range tgt.Items {
		if used[i] {
			continue
		}
		if policy == DeletionRemove {
			continue
		}
		out.Items = append(out.Items, t.Clone())
	}
	return out, nil
}

// findMatch returns the index of the first unmatched target mapping sharing a
// scalar key/value pair with the source mapping, or -1.
func findMatch(src *tree.Node, targets []*tree.Node, used []bool) int {
	for i, t := range targets {
		if used[i] || t.Kind != tree.MappingKind {
			continue
		}
		if shareScalarPair(src, t) {
			return i
		}
	}
	return -1
}

func shareScalarPair(a, b *tree.Node) bool {
	for _, p := range a.Pairs {
		if p.Value.Kind != tree.ScalarKind {
			continue
		}
		bv, ok := b.Get(p.Key)
		if ok && bv.Kind == tree.ScalarKind && p.Value.Equal(bv) {
			return true
		}
	}
	return false
}

func containsEqual(items []*tree.Node, n *tree.Node) bool {
	for _, item := range items {
		if item.Equal(n) {
			return true
		}
	}
	return false
}
