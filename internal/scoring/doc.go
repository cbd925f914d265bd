// Package scoring evaluates a drafted article against its research report and
// the recent publication history, producing a weighted 0-100 score and an
// approve/revise/reject decision.
//
// Score is a pure function: no I/O, no clock, no randomness. The recent
// article corpus is an explicit argument so callers control exactly what the
// uniqueness check compares against.
package scoring
