// Package options merges and inspects chart option trees.
//
// Option trees are nested map[string]any values, as produced by decoding
// JSON, TOML or YAML. Only values whose dynamic type is exactly
// map[string]any are plain and merged key by key. Everything else (slices,
// structs, pointers, named map types, Nodes) is atomic: it is copied by
// reference and replaces whatever was there.
//
// Keys listed in ForbiddenKeys are never copied. Option documents are often
// handed to JavaScript renderers, where "__proto__" and "constructor" would
// reach an object's prototype.
//
// Merging does not detect cycles. A plain map that contains itself recurses
// until the stack is exhausted.
package options
