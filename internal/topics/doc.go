// Package topics implements the topic-selection stage. Topics come from a
// curated YAML bank (embedded by default, overridable per deployment) and
// selection prefers categories the published history has not covered yet
// while excluding titles already in flight or published.
package topics
