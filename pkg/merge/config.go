package merge

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ListStrategy selects how two sequences are combined.
type ListStrategy string

const (
	// ListReplace takes the source sequence verbatim.
	ListReplace ListStrategy = "replace"
	// ListAppend keeps the target sequence and appends all source elements.
	ListAppend ListStrategy = "append"
	// ListIntelligent matches mapping elements on shared key/value pairs and
	// merges them, deduplicating scalar elements.
	ListIntelligent ListStrategy = "intelligent"
)

// DeletionPolicy selects how target-only keys are handled.
type DeletionPolicy string

const (
	// DeletionIgnore keeps target-only keys in the output.
	DeletionIgnore DeletionPolicy = "ignore"
	// DeletionRemove drops target-only keys from the output.
	DeletionRemove DeletionPolicy = "remove"
)

var (
	// ErrInvalidStrategy is returned by Validate for an unknown list strategy
	// or deletion policy name.
	ErrInvalidStrategy = errors.New("invalid merge strategy")
	// ErrDepthExceeded is returned when the recursion depth ceiling is hit.
	ErrDepthExceeded = errors.New("merge depth exceeded")
)

const defaultMaxDepth = 1000

// Override adjusts the strategies below a dotted key-path prefix.
// An empty field inherits the global value.
type Override struct {
	ListStrategy   ListStrategy
	DeletionPolicy DeletionPolicy
}

// Config is the resolved, immutable configuration of one merge call.
// The zero value means replace/ignore with the default depth ceiling.
type Config struct {
	ListStrategy   ListStrategy
	DeletionPolicy DeletionPolicy

	// Overrides maps dotted key-path prefixes to strategy overrides.
	// The longest matching prefix wins; prefixes match only at segment
	// boundaries ("a.b" covers "a.b", "a.b.c" and "a.b[0]", not "a.bc").
	Overrides map[string]Override

	// RecordKept also records decisions where source and target agree.
	RecordKept bool

	// MaxDepth bounds the recursion depth; 0 means the internal default.
	MaxDepth int
}

// DefaultConfig returns the default strategies: replace lists, ignore
// deletions.
func DefaultConfig() Config {
	return Config{ListStrategy: ListReplace, DeletionPolicy: DeletionIgnore}
}

// Validate checks every strategy and policy name in the configuration,
// including overrides. Empty names are valid and mean "inherit the default".
func (c Config) Validate() error {
	if err := validateListStrategy(c.ListStrategy); err != nil {
		return err
	}
	if err := validateDeletionPolicy(c.DeletionPolicy); err != nil {
		return err
	}
	for prefix, o := range c.Overrides {
		if err := validateListStrategy(o.ListStrategy); err != nil {
			return fmt.Errorf("override %q: %w", prefix, err)
		}
		if err := validateDeletionPolicy(o.DeletionPolicy); err != nil {
			return fmt.Errorf("override %q: %w", prefix, err)
		}
	}
	return nil
}

func validateListStrategy(s ListStrategy) error {
	switch s {
	case "", ListReplace, ListAppend, ListIntelligent:
		return nil
	default:
		return fmt.Errorf("%w: unknown list strategy %q (valid: replace, append, intelligent)", ErrInvalidStrategy, s)
	}
}

func validateDeletionPolicy(p DeletionPolicy) error {
	switch p {
	case "", DeletionIgnore, DeletionRemove:
		return nil
	default:
		return fmt.Errorf("%w: unknown deletion policy %q (valid: ignore, remove)", ErrInvalidStrategy, p)
	}
}

func (c Config) withDefaults() Config {
	if c.ListStrategy == "" {
		c.ListStrategy = ListReplace
	}
	if c.DeletionPolicy == "" {
		c.DeletionPolicy = DeletionIgnore
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	return c
}

// resolve returns the strategies in effect at the given path: the override
// with the longest matching prefix wins, independent of declaration order;
// without a match the global defaults apply.
func (c Config) resolve(path string) (ListStrategy, DeletionPolicy) {
	strategy, policy := c.ListStrategy, c.DeletionPolicy
	if len(c.Overrides) == 0 {
		return strategy, policy
	}

	prefixes := make([]string, 0, len(c.Overrides))
	for prefix := range c.Overrides {
		if prefixMatches(path, prefix) {
			prefixes = append(prefixes, prefix)
		}
	}
	if len(prefixes) == 0 {
		return strategy, policy
	}
	// longest prefix wins; ties are impossible since map keys are unique
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	o := c.Overrides[prefixes[0]]
	if o.ListStrategy != "" {
		strategy = o.ListStrategy
	}
	if o.DeletionPolicy != "" {
		policy = o.DeletionPolicy
	}
	return strategy, policy
}

// prefixMatches reports whether prefix covers path at a segment boundary.
func prefixMatches(path, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	next := path[len(prefix)]
	return next == '.' || next == '['
}
