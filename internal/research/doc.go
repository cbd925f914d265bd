// Package research implements the research stage: competitor pages are
// scraped for their heading structure and the findings are synthesized with
// the text-generation service into a structured research report the writer
// consumes.
package research
