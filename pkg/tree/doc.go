// Package tree implements the generic document model shared by the merge
// engine and the diff reporter: an ordered tagged-union node (mapping,
// sequence or scalar) with a YAML codec and dotted-path addressing.
package tree
