package tree

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	SplitToken     = "."
	IndexOpenChar  = "["
	IndexCloseChar = "]"
)

var (
	ErrMalformedIndex   = errors.New("malformed index key")
	ErrKeyNotFound      = errors.New("unable to find the key")
	ErrIndexOutOfBounds = errors.New("index out of bounds")
)

// JoinPath appends a mapping key to a dotted path.
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + SplitToken + key
}

// IndexPath appends a positional sequence index to a dotted path,
// e.g. IndexPath("users", 2) == "users[2]".
func IndexPath(parent string, i int) string {
	return fmt.Sprintf("%s%s%d%s", parent, IndexOpenChar, i, IndexCloseChar)
}

func kindOf(n *Node) string {
	if n == nil {
		return "nil"
	}
	return n.Kind.String()
}

// parseIndex splits a path segment into its key and optional index.
// "users[2]" yields ("users", 2); "users" yields ("users", -1).
func parseIndex(s string) (string, int, error) {
	start := strings.Index(s, IndexOpenChar)
	end := strings.Index(s, IndexCloseChar)

	if start == -1 && end == -1 {
		return s, -1, nil
	}

	if (start != -1 && end == -1) || (start == -1 && end != -1) {
		return "", -1, ErrMalformedIndex
	}

	index, err := strconv.Atoi(s[start+1 : end])
	if err != nil {
		return "", -1, ErrMalformedIndex
	}
	if index < 0 {
		return "", -1, ErrMalformedIndex
	}

	return s[:start], index, nil
}

// Lookup returns the node at the given dotted path.
// Keys are separated by the "." character and sequence elements are addressed
// with the "[<index>]" syntax, e.g. "service.ports[0].name".
// The empty path returns the node itself.
func (n *Node) Lookup(path string) (*Node, error) {
	if path == "" {
		return n, nil
	}
	cur := n
	for _, part := range strings.Split(path, SplitToken) {
		key, index, err := parseIndex(part)
		if err != nil {
			return nil, err
		}
		if key != "" {
			if cur == nil || cur.Kind != MappingKind {
				return nil, fmt.Errorf("%w: cannot descend into %s at %q", ErrInvalidType, kindOf(cur), key)
			}
			value, ok := cur.Get(key)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
			cur = value
		}
		if index >= 0 {
			if cur == nil || cur.Kind != SequenceKind {
				return nil, fmt.Errorf("%w: cannot index into %s", ErrInvalidType, kindOf(cur))
			}
			if index >= len(cur.Items) {
				return nil, fmt.Errorf("%w: index %d in sequence of %d", ErrIndexOutOfBounds, index, len(cur.Items))
			}
			cur = cur.Items[index]
		}
	}
	return cur, nil
}

// SetPath sets the node at the given dotted path, creating intermediate
// mappings and extending sequences as needed.
func (n *Node) SetPath(path string, value *Node) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrMalformedIndex)
	}
	parts := strings.Split(path, SplitToken)
	cur := n
	for i, part := range parts {
		key, index, err := parseIndex(part)
		if err != nil {
			return err
		}
		last := i == len(parts)-1

		// descend through the key, creating a container when absent
		container := cur
		if key != "" {
			if cur.Kind != MappingKind {
				return fmt.Errorf("%w: cannot descend into %s at %q", ErrInvalidType, kindOf(cur), key)
			}
			if last && index < 0 {
				cur.Set(key, value)
				return nil
			}
			next, ok := cur.Get(key)
			if !ok {
				if index >= 0 {
					next = NewSequence()
				} else {
					next = NewMapping()
				}
				cur.Set(key, next)
			}
			container = next
		}

		if index >= 0 {
			if container.Kind != SequenceKind {
				return fmt.Errorf("%w: cannot index into %s", ErrInvalidType, container.Kind)
			}
			for len(container.Items) <= index {
				container.Items = append(container.Items, Null())
			}
			if last {
				container.Items[index] = value
				return nil
			}
			if container.Items[index] == nil || container.Items[index].Kind == ScalarKind && container.Items[index].Value == nil {
				container.Items[index] = NewMapping()
			}
			cur = container.Items[index]
			continue
		}
		cur = container
	}
	return nil
}

// DeletePath removes the node at the given dotted path. Removing a sequence
// element splices it out of the sequence.
func (n *Node) DeletePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrMalformedIndex)
	}
	parts := strings.Split(path, SplitToken)
	parentPath := strings.Join(parts[:len(parts)-1], SplitToken)
	parent, err := n.Lookup(parentPath)
	if err != nil {
		return err
	}

	key, index, err := parseIndex(parts[len(parts)-1])
	if err != nil {
		return err
	}
	if index >= 0 {
		seq := parent
		if key != "" {
			var ok bool
			seq, ok = parent.Get(key)
			if !ok {
				return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
			}
		}
		if seq.Kind != SequenceKind {
			return fmt.Errorf("%w: cannot index into %s", ErrInvalidType, kindOf(seq))
		}
		if index >= len(seq.Items) {
			return fmt.Errorf("%w: index %d in sequence of %d", ErrIndexOutOfBounds, index, len(seq.Items))
		}
		seq.Items = append(seq.Items[:index], seq.Items[index+1:]...)
		return nil
	}
	if parent.Kind != MappingKind {
		return fmt.Errorf("%w: cannot descend into %s at %q", ErrInvalidType, kindOf(parent), key)
	}
	if !parent.Delete(key) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return nil
}
