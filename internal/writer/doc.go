// Package writer implements the writing stage: the research report is turned
// into a full SEO-optimized article via the text-generation service, then
// illustrations are sourced for the model's suggested search terms. Image
// sourcing is best effort; an article without images is still publishable.
package writer
