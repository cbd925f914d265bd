// Package textutil provides text tokenization and set-based similarity
// helpers used by the uniqueness quality check.
package textutil
