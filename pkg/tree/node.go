package tree

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidType is returned when a Go value cannot be represented as a Node.
	ErrInvalidType = errors.New("invalid type conversion")
)

// Kind discriminates the three node variants of a parsed document.
type Kind int

const (
	// ScalarKind is a leaf value: string, int64, float64, bool or nil.
	ScalarKind Kind = iota
	// MappingKind is an ordered set of key/value pairs with unique,
	// case-sensitive keys.
	MappingKind
	// SequenceKind is an ordered list of nodes.
	SequenceKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case MappingKind:
		return "mapping"
	case SequenceKind:
		return "sequence"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pair is one key/value entry of a mapping node.
type Pair struct {
	Key   string
	Value *Node
}

// Node is a generic parsed-document value: a mapping, a sequence or a scalar.
// Mapping order is preserved from the source document. Nodes are built fresh
// by parsing or by merge output; callers must not share subtrees between
// documents (use Clone).
type Node struct {
	Kind  Kind
	Pairs []Pair  // MappingKind only
	Items []*Node // SequenceKind only
	Value any     // ScalarKind only
}

// NewMapping returns an empty mapping node.
func NewMapping() *Node {
	return &Node{Kind: MappingKind}
}

// NewSequence returns a sequence node holding the given items.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: SequenceKind, Items: items}
}

// Scalar returns a scalar node holding the given value.
// Numeric types are normalized to int64/float64.
func Scalar(v any) *Node {
	return &Node{Kind: ScalarKind, Value: normalizeScalar(v)}
}

// Null returns a scalar node holding nil.
func Null() *Node {
	return &Node{Kind: ScalarKind}
}

func normalizeScalar(v any) any {
	switch val := v.(type) {
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}

// FromValue converts a plain Go value (as produced by generic YAML/JSON
// unmarshalling) into a Node. Map keys are sorted to keep the result
// deterministic, since Go maps carry no order.
func FromValue(v any) (*Node, error) {
	switch val := v.(type) {
	case nil:
		return Null(), nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			child, err := FromValue(val[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, child)
		}
		return m, nil
	case []any:
		items := make([]*Node, 0, len(val))
		for _, item := range val {
			child, err := FromValue(item)
			if err != nil {
				return nil, err
			}
			items = append(items, child)
		}
		return NewSequence(items...), nil
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return Scalar(val), nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T to a tree node", ErrInvalidType, v)
	}
}

// Interface lowers the node to plain Go values: map[string]any for mappings
// (key order is lost), []any for sequences, the scalar value otherwise.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case MappingKind:
		m := make(map[string]any, len(n.Pairs))
		for _, p := range n.Pairs {
			m[p.Key] = p.Value.Interface()
		}
		return m
	case SequenceKind:
		items := make([]any, len(n.Items))
		for i, item := range n.Items {
			items[i] = item.Interface()
		}
		return items
	default:
		return n.Value
	}
}

// Get returns the value for a mapping key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != MappingKind {
		return nil, false
	}
	for _, p := range n.Pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Has reports whether a mapping key is present.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Set replaces the value for an existing mapping key, or appends a new pair.
func (n *Node) Set(key string, value *Node) {
	for i, p := range n.Pairs {
		if p.Key == key {
			n.Pairs[i].Value = value
			return
		}
	}
	n.Pairs = append(n.Pairs, Pair{Key: key, Value: value})
}

// Delete removes a mapping key, reporting whether it was present.
func (n *Node) Delete(key string) bool {
	for i, p := range n.Pairs {
		if p.Key == key {
			n.Pairs = append(n.Pairs[:i], n.Pairs[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns the mapping keys in document order.
func (n *Node) Keys() []string {
	keys := make([]string, len(n.Pairs))
	for i, p := range n.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Len returns the number of pairs or items; 0 for scalars.
func (n *Node) Len() int {
	switch n.Kind {
	case MappingKind:
		return len(n.Pairs)
	case SequenceKind:
		return len(n.Items)
	default:
		return 0
	}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Value: n.Value}
	if n.Pairs != nil {
		out.Pairs = make([]Pair, len(n.Pairs))
		for i, p := range n.Pairs {
			out.Pairs[i] = Pair{Key: p.Key, Value: p.Value.Clone()}
		}
	}
	if n.Items != nil {
		out.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			out.Items[i] = item.Clone()
		}
	}
	return out
}

// Equal reports semantic equality: mappings compare as key sets regardless of
// order, sequences compare element-wise in order, scalars compare by
// normalized value (equal int and float values compare equal).
func (n *Node) Equal(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	if n.Kind != other.Kind {
		return false
	}
	switch n.Kind {
	case MappingKind:
		if len(n.Pairs) != len(other.Pairs) {
			return false
		}
		for _, p := range n.Pairs {
			ov, ok := other.Get(p.Key)
			if !ok || !p.Value.Equal(ov) {
				return false
			}
		}
		return true
	case SequenceKind:
		if len(n.Items) != len(other.Items) {
			return false
		}
		for i, item := range n.Items {
			if !item.Equal(other.Items[i]) {
				return false
			}
		}
		return true
	default:
		return scalarEqual(n.Value, other.Value)
	}
}

func scalarEqual(a, b any) bool {
	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			return af == bf
		}
		return false
	}
	return a == b
}

func asFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case int64:
		return float64(val), true
	case float64:
		return val, true
	default:
		return 0, false
	}
}
