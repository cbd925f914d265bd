// Package services holds cross-cutting helpers shared by the external
// collaborator clients and pipeline stages: the error taxonomy used to
// classify stage failures, and context annotation helpers that thread
// workflow identifiers through logging.
//
// Subpackages wrap the individual collaborators (text generation, image
// search, CMS publishing).
package services
