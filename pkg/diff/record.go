// Package diff accumulates the change records produced while merging two
// documents and renders them as a report.
package diff

import "encoding/json"

// Kind classifies one merge decision.
type Kind string

const (
	// Added means the key only existed in the source document.
	Added Kind = "added"
	// Removed means a target-only key was dropped by the deletion policy.
	Removed Kind = "removed"
	// Changed means the source value replaced a differing target value.
	Changed Kind = "changed"
	// ListMerged summarizes a structural merge of two sequences.
	ListMerged Kind = "list-merged"
	// Kept means source and target agreed; recorded only on request,
	// carries no merge semantics.
	Kept Kind = "kept"
)

// Record is one logged merge decision. Source and Target hold plain Go
// values (as produced by tree.Node.Interface). Which side is meaningful
// follows from the kind: added carries only Source, removed only Target, the
// other kinds both.
type Record struct {
	Path   string `json:"path"`
	Kind   Kind   `json:"kind"`
	Source any    `json:"source"`
	Target any    `json:"target"`
}

// MarshalJSON emits only the sides the record's kind carries, so a value that
// is a legitimate null stays distinguishable from an absent side.
func (r Record) MarshalJSON() ([]byte, error) {
	type wire struct {
		Path   string `json:"path"`
		Kind   Kind   `json:"kind"`
		Source *any   `json:"source,omitempty"`
		Target *any   `json:"target,omitempty"`
	}
	w := wire{Path: r.Path, Kind: r.Kind}
	switch r.Kind {
	case Added:
		w.Source = &r.Source
	case Removed:
		w.Target = &r.Target
	default:
		w.Source = &r.Source
		w.Target = &r.Target
	}
	return json.Marshal(w)
}

// Collector is the append-only side channel the merge engine writes to during
// a single traversal. Each merge call owns its own collector; there are no
// concurrent writers.
type Collector struct {
	records []Record
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Add appends one record in traversal order.
func (c *Collector) Add(r Record) {
	c.records = append(c.records, r)
}

// Added records a source-only value.
func (c *Collector) Added(path string, source any) {
	c.Add(Record{Path: path, Kind: Added, Source: source})
}

// Removed records a dropped target-only value.
func (c *Collector) Removed(path string, target any) {
	c.Add(Record{Path: path, Kind: Removed, Target: target})
}

// Changed records a source value replacing a differing target value.
func (c *Collector) Changed(path string, source, target any) {
	c.Add(Record{Path: path, Kind: Changed, Source: source, Target: target})
}

// ListMerged records the structural merge of two sequences.
func (c *Collector) ListMerged(path string, source, target any) {
	c.Add(Record{Path: path, Kind: ListMerged, Source: source, Target: target})
}

// Kept records an unchanged value.
func (c *Collector) Kept(path string, value any) {
	c.Add(Record{Path: path, Kind: Kept, Source: value, Target: value})
}

// Records returns the accumulated records in traversal order.
func (c *Collector) Records() []Record {
	return c.records
}

// Summary counts records per kind.
func Summary(records []Record) map[Kind]int {
	summary := map[Kind]int{}
	for _, r := range records {
		summary[r.Kind]++
	}
	return summary
}
