// Package yaml implements document-level YAML comparison helpers: semantic
// equality across formatting differences and human-readable unified diffs.
// Tests and the CLI use these primitives; the merge engine itself operates on
// the tree model from pkg/tree.
package yaml
