// Package content defines the typed payloads exchanged between pipeline
// stages: the selected topic, the research report, the drafted article, and
// the published-history entries used for uniqueness checks. Each stage
// consumes the previous stage's payload verbatim; payloads are never
// mutated once produced.
package content
