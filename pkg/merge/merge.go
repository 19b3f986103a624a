// Package merge implements the recursive tree-walking merge of two parsed
// documents, guided by a strategy configuration, recording every decision as
// a change record for reporting and replay.
package merge

import (
	"fmt"

	"github.com/psbr27/compare-yamls/pkg/diff"
	"github.com/psbr27/compare-yamls/pkg/tree"
)

// Merge merges source into target according to the configuration and returns
// a brand-new tree plus the change records in traversal order. Neither input
// is mutated. Source wins on every conflict; type mismatches between source
// and target are normal outcomes, not errors. The only failures are a
// malformed configuration (ErrInvalidStrategy, checked before traversal) and
// the recursion ceiling (ErrDepthExceeded).
func Merge(source, target *tree.Node, cfg Config) (*tree.Node, []diff.Record, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if source == nil {
		source = tree.Null()
	}
	if target == nil {
		target = tree.Null()
	}

	m := &merger{cfg: cfg, collector: diff.NewCollector()}
	out, err := m.merge(source, target, "", 0)
	if err != nil {
		return nil, nil, err
	}
	return out, m.collector.Records(), nil
}

type merger struct {
	cfg       Config
	collector *diff.Collector
}

// merge handles a node pair where both sides exist at the same path.
func (m *merger) merge(src, tgt *tree.Node, path string, depth int) (*tree.Node, error) {
	if depth > m.cfg.MaxDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d at %q", ErrDepthExceeded, m.cfg.MaxDepth, path)
	}
	switch {
	case src.Kind == tree.MappingKind && tgt.Kind == tree.MappingKind:
		return m.mergeMappings(src, tgt, path, depth)
	case src.Kind == tree.SequenceKind && tgt.Kind == tree.SequenceKind:
		return m.mergeSequences(src, tgt, path, depth)
	default:
		// scalars or a type mismatch: source wins outright
		if !src.Equal(tgt) {
			m.collector.Changed(path, src.Interface(), tgt.Interface())
		} else if m.cfg.RecordKept {
			m.collector.Kept(path, tgt.Interface())
		}
		return src.Clone(), nil
	}
}

func (m *merger) mergeMappings(src, tgt *tree.Node, path string, depth int) (*tree.Node, error) {
	// decide every source key first so records land in source order
	merged := make(map[string]*tree.Node, len(src.Pairs))
	for _, p := range src.Pairs {
		keyPath := tree.JoinPath(path, p.Key)
		tv, ok := tgt.Get(p.Key)
		if !ok {
			m.collector.Added(keyPath, p.Value.Interface())
			merged[p.Key] = p.Value.Clone()
			continue
		}
		child, err := m.merge(p.Value, tv, keyPath, depth+1)
		if err != nil {
			return nil, err
		}
		merged[p.Key] = child
	}

	// assemble: target key order for shared keys, deletion policy for
	// target-only keys, then source-only keys appended in source order
	out := tree.NewMapping()
	for _, p := range tgt.Pairs {
		if child, ok := merged[p.Key]; ok {
			out.Set(p.Key, child)
			continue
		}
		keyPath := tree.JoinPath(path, p.Key)
		_, policy := m.cfg.resolve(keyPath)
		if policy == DeletionRemove {
			m.collector.Removed(keyPath, p.Value.Interface())
			continue
		}
		out.Set(p.Key, p.Value.Clone())
	}
	for _, p := range src.Pairs {
		if !tgt.Has(p.Key) {
			out.Set(p.Key, merged[p.Key])
		}
	}
	return out, nil
}
