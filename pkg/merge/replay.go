package merge

import (
	"fmt"

	"github.com/psbr27/compare-yamls/pkg/diff"
	"github.com/psbr27/compare-yamls/pkg/tree"
)

// Replay applies a change record sequence to a clone of target and returns
// the result. Replaying the records of Merge(source, target, cfg) over the
// same target and configuration reconstructs the merged tree. The records
// must be in the order Merge produced them.
//
// A list-merged record is replayed by re-running the sequence rule for its
// path, which also applies every record nested below it; those nested records
// are skipped rather than applied twice (an inner append would otherwise
// duplicate its elements).
func Replay(target *tree.Node, records []diff.Record, cfg Config) (*tree.Node, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if target == nil {
		target = tree.Null()
	}

	out := target.Clone()
	var replayedLists []string
	for _, r := range records {
		if underReplayedList(r.Path, replayedLists) {
			continue
		}
		switch r.Kind {
		case diff.Added, diff.Changed:
			value, err := tree.FromValue(r.Source)
			if err != nil {
				return nil, fmt.Errorf("record %q: %w", r.Path, err)
			}
			if r.Path == "" {
				out = value
				continue
			}
			if err := out.SetPath(r.Path, value); err != nil {
				return nil, fmt.Errorf("record %q: %w", r.Path, err)
			}

		case diff.Removed:
			if err := out.DeletePath(r.Path); err != nil {
				return nil, fmt.Errorf("record %q: %w", r.Path, err)
			}

		case diff.ListMerged:
			merged, err := replayListMerge(out, r, cfg)
			if err != nil {
				return nil, err
			}
			replayedLists = append(replayedLists, r.Path)
			if r.Path == "" {
				out = merged
				continue
			}
			if err := out.SetPath(r.Path, merged); err != nil {
				return nil, fmt.Errorf("record %q: %w", r.Path, err)
			}

		case diff.Kept:
			// non-semantic

		default:
			return nil, fmt.Errorf("record %q: unknown change kind %q", r.Path, r.Kind)
		}
	}
	return out, nil
}

// underReplayedList reports whether path lies strictly below one of the
// already replayed list-merged paths.
func underReplayedList(path string, lists []string) bool {
	for _, l := range lists {
		if l == "" {
			return path != ""
		}
		if len(path) > len(l) && prefixMatches(path, l) {
			return true
		}
	}
	return false
}

// replayListMerge re-runs the sequence merge for one list-merged record
// against the current state of the tree, with records discarded.
func replayListMerge(root *tree.Node, r diff.Record, cfg Config) (*tree.Node, error) {
	src, err := tree.FromValue(r.Source)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", r.Path, err)
	}
	cur, err := root.Lookup(r.Path)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", r.Path, err)
	}
	if src.Kind != tree.SequenceKind || cur.Kind != tree.SequenceKind {
		return nil, fmt.Errorf("record %q: list-merged on %s/%s", r.Path, src.Kind, cur.Kind)
	}
	m := &merger{cfg: cfg, collector: diff.NewCollector()}
	return m.mergeSequences(src, cur, r.Path, 0)
}
